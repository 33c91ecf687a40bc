package delete_area

import "context"

type AreaService interface {
	DeleteArea(ctx context.Context, areaID string) error
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

package domain

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// ConfirmationCodeLength длина кода подтверждения
const ConfirmationCodeLength = 8

var confirmationCodeRe = regexp.MustCompile(`^[A-Z0-9]{8}$`)

// NewConfirmationCode первые 8 символов случайного UUID в верхнем регистре
// Коллизии не перепроверяются: код служит только для визуальной сверки
func NewConfirmationCode() string {
	return strings.ToUpper(uuid.NewString()[:ConfirmationCodeLength])
}

// IsValidConfirmationCode проверяет формат кода
func IsValidConfirmationCode(code string) bool {
	return confirmationCodeRe.MatchString(code)
}

// NewID генерирует идентификатор документа
func NewID() string {
	return uuid.NewString()
}

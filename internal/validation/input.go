package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Константы валидации
const (
	MinJobTitleLength         = 3
	MaxJobTitleLength         = 200
	MaxJobDescriptionLength   = 5000
	MaxMilestones             = 50
	MinDisputeTitleLength     = 3
	MaxDisputeTitleLength     = 200
	MaxDisputeDescriptionSize = 5000
)

// ValidateLength проверяет длину строки.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateNonEmpty проверяет, что строка не пустая.
func ValidateNonEmpty(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s не может быть пустым", fieldName)
	}
	return nil
}

// ValidateJobText проверяет заголовок и описание работы.
func ValidateJobText(title, description string) error {
	if err := ValidateNonEmpty("заголовок работы", title); err != nil {
		return err
	}
	if err := ValidateLength("заголовок работы", strings.TrimSpace(title), MinJobTitleLength, MaxJobTitleLength); err != nil {
		return err
	}
	return ValidateLength("описание работы", description, 0, MaxJobDescriptionLength)
}

// ValidateMilestoneCount ограничивает число этапов одной работы.
func ValidateMilestoneCount(n int) error {
	if n == 0 {
		return fmt.Errorf("нужен хотя бы один этап")
	}
	if n > MaxMilestones {
		return fmt.Errorf("этапов должно быть не более %d", MaxMilestones)
	}
	return nil
}

// ValidateDisputeText проверяет заголовок и описание спора.
func ValidateDisputeText(title, description string) error {
	if err := ValidateNonEmpty("заголовок спора", title); err != nil {
		return err
	}
	if err := ValidateLength("заголовок спора", strings.TrimSpace(title), MinDisputeTitleLength, MaxDisputeTitleLength); err != nil {
		return err
	}
	return ValidateLength("описание спора", description, 0, MaxDisputeDescriptionSize)
}

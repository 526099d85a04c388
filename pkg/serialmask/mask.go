// Package serialmask проверяет серийные номера по маске типа оборудования.
//
// Символы маски:
//
//	N – цифра от 0 до 9;
//	A – прописная буква латинского алфавита;
//	a – строчная буква латинского алфавита;
//	X – прописная буква латинского алфавита либо цифра от 0 до 9;
//	Z – символ из списка: "-", "_", "@".
package serialmask

import (
	"fmt"

	apperrors "equipment-registry/pkg/errors"
)

// AllowedSymbols - все допустимые символы маски.
const AllowedSymbols = "NAaXZ"

type class func(c byte) bool

var classes = map[byte]class{
	'N': isDigit,
	'A': isUpper,
	'a': isLower,
	'X': func(c byte) bool { return isUpper(c) || isDigit(c) },
	'Z': func(c byte) bool { return c == '-' || c == '_' || c == '@' },
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
func isUpper(c byte) bool { return c >= 'A' && c <= 'Z' }
func isLower(c byte) bool { return c >= 'a' && c <= 'z' }

// Pattern - скомпилированная маска. Нулевое значение не совпадает ни с чем.
type Pattern struct {
	mask    string
	classes []class
}

// Compile проверяет маску и подготавливает её для многократного использования.
func Compile(mask string) (Pattern, error) {
	if err := Validate(mask); err != nil {
		return Pattern{}, err
	}
	p := Pattern{mask: mask, classes: make([]class, len(mask))}
	for i := 0; i < len(mask); i++ {
		p.classes[i] = classes[mask[i]]
	}
	return p, nil
}

// Mask возвращает исходную строку маски.
func (p Pattern) Mask() string { return p.mask }

// Match сравнивает серийный номер с маской посимвольно, целиком.
func (p Pattern) Match(serial string) bool {
	if len(p.classes) == 0 || len(serial) != len(p.classes) {
		return false
	}
	for i := 0; i < len(serial); i++ {
		if !p.classes[i](serial[i]) {
			return false
		}
	}
	return true
}

// Validate возвращает ErrInvalidMask, если маска пуста или содержит посторонние символы.
func Validate(mask string) error {
	if mask == "" {
		return fmt.Errorf("%w: маска не может быть пустой", apperrors.ErrInvalidMask)
	}
	for i := 0; i < len(mask); i++ {
		if _, ok := classes[mask[i]]; !ok {
			return fmt.Errorf("%w: недопустимый символ %q в позиции %d", apperrors.ErrInvalidMask, mask[i], i+1)
		}
	}
	return nil
}

// Match проверяет серийный номер по маске. Маска с неизвестными символами
// не совпадает ни с одним номером.
func Match(serial, mask string) bool {
	p, err := Compile(mask)
	if err != nil {
		return false
	}
	return p.Match(serial)
}

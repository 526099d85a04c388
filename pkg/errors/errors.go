package errors

import "fmt"

var (
	// JWT и токены
	ErrInvalidSigningMethod = fmt.Errorf("неверный метод подписи токена")
	ErrInvalidToken         = fmt.Errorf("недопустимый токен")
	ErrTokenExpired         = fmt.Errorf("срок действия токена истёк")
	ErrTokenNotYetValid     = fmt.Errorf("токен ещё не активен")
	ErrTokenIsNotAccess     = fmt.Errorf("токен не является access-токеном")

	// Авторизация
	ErrEmptyAuthHeader   = fmt.Errorf("заголовок авторизации отсутствует")
	ErrInvalidAuthHeader = fmt.Errorf("неверный формат заголовка авторизации")

	// Контекст
	ErrUserIDNotFoundInContext = fmt.Errorf("UserID не найден в контексте запроса")

	// Общие
	ErrNotFound   = fmt.Errorf("запись не найдена")
	ErrBadRequest = fmt.Errorf("неверный запрос")

	// Оборудование и типы оборудования
	ErrEquipmentTypeNotFound = fmt.Errorf("указанный тип оборудования не существует")
	ErrInvalidMask           = fmt.Errorf("маска серийного номера может содержать только символы 'N', 'A', 'a', 'X', 'Z'")
	ErrMaskMismatch          = fmt.Errorf("серийный номер не соответствует маске")
	ErrDuplicateSerialNumber = fmt.Errorf("оборудование с таким типом и серийным номером уже существует")
	ErrPersistence           = fmt.Errorf("не удалось сохранить оборудование")
	ErrTypeInUse             = fmt.Errorf("нельзя удалить тип оборудования, так как он используется оборудованием")
	ErrMaskConflict          = fmt.Errorf("новая маска не подходит для существующего оборудования этого типа")
	ErrAlreadyDeleted        = fmt.Errorf("оборудование уже было удалено")
	ErrNotDeleted            = fmt.Errorf("оборудование не было удалено")
)

// HttpError - ошибка с HTTP-кодом и сообщением для клиента.
// Err - внутренняя причина, в ответ не попадает.
type HttpError struct {
	Code    int
	Message string
	Err     error
	Details interface{}
	Context map[string]interface{}
}

func (e *HttpError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *HttpError) Unwrap() error { return e.Err }

func NewHttpError(code int, message string, err error, ctx map[string]interface{}) *HttpError {
	return &HttpError{Code: code, Message: message, Err: err, Context: ctx}
}

// Кастомные типы ошибок
type InvalidInputError struct {
	Message string
}

func (e *InvalidInputError) Error() string { return e.Message }

func NewInvalidInputError(format string, args ...interface{}) error {
	return &InvalidInputError{Message: fmt.Sprintf(format, args...)}
}

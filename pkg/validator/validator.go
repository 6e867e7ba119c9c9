package validator

import (
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

var (
	initOnce  sync.Once
	validate  *validator.Validate
	sanitizer *bluemonday.Policy

	productIDPattern  = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	cardExpiryPattern = regexp.MustCompile(`^(0[1-9]|1[0-2])/[0-9]{2}$`)
	cardCVCPattern    = regexp.MustCompile(`^[0-9]{3,4}$`)
	nonDigitPattern   = regexp.MustCompile(`\D`)
)

const maxFormattedCardLength = 19

// Init prepares the shared validator and registers the custom tags on gin's
// binding engine. It is safe to call more than once.
func Init() {
	initOnce.Do(func() {
		validate = validator.New()
		sanitizer = bluemonday.StrictPolicy()

		registerCustomValidations(validate)

		if engine, ok := binding.Validator.Engine().(*validator.Validate); ok {
			registerCustomValidations(engine)
		}
	})
}

func registerCustomValidations(v *validator.Validate) {
	v.RegisterValidation("product_id", validateProductID)
	v.RegisterValidation("card_number", validateCardNumber)
	v.RegisterValidation("card_expiry", validateCardExpiry)
	v.RegisterValidation("card_cvc", validateCardCVC)
}

func Validate(s interface{}) error {
	Init()
	return validate.Struct(s)
}

// SanitizeString strips every HTML tag from s.
func SanitizeString(s string) string {
	Init()
	return strings.TrimSpace(sanitizer.Sanitize(s))
}

func ValidateURL(url string) bool {
	urlRegex := regexp.MustCompile(`^https?://[a-zA-Z0-9\-\.]+(:[0-9]+)?(/.*)?$`)
	return urlRegex.MatchString(url)
}

// IsProductID reports whether id has the shape of a catalog identifier.
func IsProductID(id string) bool {
	return productIDPattern.MatchString(id)
}

// IsCardNumber accepts 12 to 19 digits, optionally grouped with spaces.
func IsCardNumber(value string) bool {
	compact := strings.ReplaceAll(strings.TrimSpace(value), " ", "")
	if len(compact) < 12 || len(compact) > 19 {
		return false
	}
	return !nonDigitPattern.MatchString(compact)
}

// IsCardExpiry accepts MM/YY with a month between 01 and 12.
func IsCardExpiry(value string) bool {
	return cardExpiryPattern.MatchString(strings.TrimSpace(value))
}

func IsCardCVC(value string) bool {
	return cardCVCPattern.MatchString(strings.TrimSpace(value))
}

// FormatCardNumber keeps the digits of value and groups them by four,
// truncated to the length of a formatted 16 digit card.
func FormatCardNumber(value string) string {
	digits := nonDigitPattern.ReplaceAllString(value, "")
	var groups []string
	for len(digits) > 4 {
		groups = append(groups, digits[:4])
		digits = digits[4:]
	}
	if digits != "" {
		groups = append(groups, digits)
	}
	formatted := strings.Join(groups, " ")
	if len(formatted) > maxFormattedCardLength {
		formatted = formatted[:maxFormattedCardLength]
	}
	return formatted
}

// FormatExpiry turns "1228" into "12/28". Inputs with fewer than two digits are
// returned as bare digits.
func FormatExpiry(value string) string {
	digits := nonDigitPattern.ReplaceAllString(value, "")
	if len(digits) < 2 {
		return digits
	}
	rest := digits[2:]
	if len(rest) > 2 {
		rest = rest[:2]
	}
	return digits[:2] + "/" + rest
}

func validateProductID(fl validator.FieldLevel) bool {
	return IsProductID(fl.Field().String())
}

func validateCardNumber(fl validator.FieldLevel) bool {
	return IsCardNumber(fl.Field().String())
}

func validateCardExpiry(fl validator.FieldLevel) bool {
	return IsCardExpiry(fl.Field().String())
}

func validateCardCVC(fl validator.FieldLevel) bool {
	return IsCardCVC(fl.Field().String())
}

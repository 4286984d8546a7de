package policy

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/homeschool/core"
)

var (
	creditDefTag  = "creditdef"
	creditDefText = "credit definition must be spelled \"" + CarnegieUnit + "\" or \"" + Local + "\" for hours-based states"
)

// InitValidators registers the policy validation tags.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(creditDefTag, creditDefValidation)
	core.RegisterCustomTranslation(validate, translator, creditDefTag, creditDefText)
}

// creditDefValidation rejects miscased hours-based definitions, which would silently make a state completion based.
func creditDefValidation(fl validator.FieldLevel) bool {
	def, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	for _, known := range []string{CarnegieUnit, Local} {
		if core.SameName(def, known) {
			return def == known
		}
	}
	return core.CleanString(def) != ""
}

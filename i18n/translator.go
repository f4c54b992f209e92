package i18n

import (
	"sync"

	"github.com/reoring/formbind"
	"github.com/reoring/formbind/validators"
)

// Translator retrieves localized messages for validator message keys.
// params holds the values referenced by "{name}" placeholders (for example
// "min" and "max").
type Translator interface {
	Message(key string, params map[string]any) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

var ja = map[string]string{
	validators.KeyRequired:        "必須項目です",
	validators.KeyNotNull:         "null は許可されていません",
	validators.KeyNotEmpty:        "空にできません",
	validators.KeyNotBlank:        "空白のみは許可されていません",
	validators.KeyNull:            "null でなければなりません",
	validators.KeyAssertTrue:      "true でなければなりません",
	validators.KeyAssertFalse:     "false でなければなりません",
	validators.KeyMin:             "{value} 以上でなければなりません",
	validators.KeyMax:             "{value} 以下でなければなりません",
	validators.KeyDecimalMin:      "{value} 以上でなければなりません",
	validators.KeyDecimalMinExcl:  "{value} より大きくなければなりません",
	validators.KeyDecimalMax:      "{value} 以下でなければなりません",
	validators.KeyDecimalMaxExcl:  "{value} 未満でなければなりません",
	validators.KeyNegative:        "0 未満でなければなりません",
	validators.KeyNegativeOrZero:  "0 以下でなければなりません",
	validators.KeyPositive:        "0 より大きくなければなりません",
	validators.KeyPositiveOrZero:  "0 以上でなければなりません",
	validators.KeySize:            "{min} から {max} の間のサイズにしてください",
	validators.KeyDigits:          "数値が範囲外です (<{integer} 桁>.<{fraction} 桁> を想定)",
	validators.KeyPast:            "過去の日付でなければなりません",
	validators.KeyPastOrPresent:   "過去または現在の日付でなければなりません",
	validators.KeyFuture:          "未来の日付でなければなりません",
	validators.KeyFutureOrPresent: "現在または未来の日付でなければなりません",
	validators.KeyPattern:         "\"{regexp}\" にマッチしなければなりません",
	validators.KeyEmail:           "電子メールアドレスとして正しい形式にしてください",
	validators.KeyNumber:          "数値でなければなりません",
	validators.KeyTag:             "{tag} を満たしていません",
}

var en = validators.DefaultMessages()

func (t dictTranslator) Message(key string, params map[string]any) string {
	dict := en
	if t.lang == "ja" {
		dict = ja
	}
	tmpl, ok := dict[key]
	if !ok {
		return key
	}
	return validators.Render(tmpl, params)
}

var current = struct {
	mu sync.RWMutex
	tr Translator
}{tr: dictTranslator{lang: "en"}}

// Language returns the built-in Translator for lang ("en"/"ja"). Unknown
// languages fall back to English.
func Language(lang string) Translator {
	if lang != "ja" {
		lang = "en"
	}
	return dictTranslator{lang: lang}
}

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) { SetTranslator(Language(lang)) }

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version). nil restores English.
func SetTranslator(tr Translator) {
	if tr == nil {
		tr = dictTranslator{lang: "en"}
	}
	current.mu.Lock()
	current.tr = tr
	current.mu.Unlock()
}

// Current returns the active Translator.
func Current() Translator {
	current.mu.RLock()
	defer current.mu.RUnlock()
	return current.tr
}

// T fetches a message for the given key using the current Translator.
func T(key string, params map[string]any) string { return Current().Message(key, params) }

// keyed is implemented by validators with translatable default messages.
type keyed interface {
	MessageKey() string
	MessageParams() map[string]any
}

// Interpolator returns a formbind.InterpolateFunc that replaces the default
// message of keyed validators with tr's translation. Other messages, custom
// messages and unknown keys pass through. A nil tr follows the current
// Translator at call time.
func Interpolator(tr Translator) formbind.InterpolateFunc {
	return func(message string, v formbind.Validator, _ *formbind.Node) string {
		k, ok := v.(keyed)
		if !ok || k.MessageKey() == "" {
			return message
		}
		t := tr
		if t == nil {
			t = Current()
		}
		out := t.Message(k.MessageKey(), k.MessageParams())
		if out == k.MessageKey() {
			return message
		}
		return out
	}
}

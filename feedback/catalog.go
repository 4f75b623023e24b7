package feedback

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Config selects the feedback language.
type Config struct {
	// Locale is "en" or "zh".
	Locale string `yaml:"locale" mapstructure:"locale" validate:"omitempty,oneof=en zh"`
}

// ApplyDefaults applies default values.
func (c *Config) ApplyDefaults() {
	if c.Locale == "" {
		c.Locale = "en"
	}
}

var english = map[string]string{
	KeyGenericError:  "An error occurred while running the ollama command.",
	KeyModelNotFound: "Model %s not found. Run /ollama list to refresh the model list.",
	KeyTimeout:       "The ollama command timed out and was terminated.",
	KeyBusy:          "Too many ollama commands are running. Please try again shortly.",
	KeyUsage:         "Usage: /ollama <list|serve|ps|model <name>>",

	KeyListRunning:    "Fetching model list...",
	KeyServeStarting:  "Starting ollama service...",
	KeyPsRunning:      "Fetching running models...",
	KeyRunStarting:    "Loading model %s...",
	KeyListSuccess:    "Model list fetched.",
	KeyServiceStarted: "Ollama service started.",
	KeyPsSuccess:      "Running models listed.",
	KeyRunSuccess:     "Model %s finished.",
	KeyModelSet:       "Current model set to %s.",
}

var chinese = map[string]string{
	KeyGenericError:  "执行 ollama 命令时出错。",
	KeyModelNotFound: "未找到模型 %s。请先执行 /ollama list 刷新模型列表。",
	KeyTimeout:       "ollama 命令执行超时，已被终止。",
	KeyBusy:          "正在执行的 ollama 命令过多，请稍后再试。",
	KeyUsage:         "用法: /ollama <list|serve|ps|model <模型名>>",

	KeyListRunning:    "正在获取模型列表...",
	KeyServeStarting:  "正在启动 ollama 服务...",
	KeyPsRunning:      "正在获取运行中的模型...",
	KeyRunStarting:    "正在加载模型 %s...",
	KeyListSuccess:    "模型列表获取完成。",
	KeyServiceStarted: "ollama 服务已启动。",
	KeyPsSuccess:      "运行中的模型列表获取完成。",
	KeyRunSuccess:     "模型 %s 运行结束。",
	KeyModelSet:       "当前模型已设置为 %s。",
}

// Translator renders Messages in one language.
type Translator struct {
	tag     language.Tag
	printer *message.Printer
	known   map[string]string
}

// NewTranslator builds a Translator for locale. Unknown locales fall back
// to English.
func NewTranslator(locale string) (*Translator, error) {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, msg := range english {
		if err := b.SetString(language.English, key, msg); err != nil {
			return nil, fmt.Errorf("feedback: catalog en %s: %w", key, err)
		}
	}
	for key, msg := range chinese {
		if err := b.SetString(language.SimplifiedChinese, key, msg); err != nil {
			return nil, fmt.Errorf("feedback: catalog zh %s: %w", key, err)
		}
	}

	tag := resolveLocale(locale)
	return &Translator{
		tag:     tag,
		printer: message.NewPrinter(tag, message.Catalog(b)),
		known:   english,
	}, nil
}

// MustTranslator is NewTranslator for static locales; it panics on error.
func MustTranslator(locale string) *Translator {
	tr, err := NewTranslator(locale)
	if err != nil {
		panic(err)
	}
	return tr
}

// Language returns the resolved language tag.
func (t *Translator) Language() language.Tag { return t.tag }

// Render returns the display text of msg. Unknown keys render as the key itself.
func (t *Translator) Render(msg Message) string {
	if msg.Key == "" {
		return msg.Text
	}
	if _, ok := t.known[msg.Key]; !ok {
		return msg.Key
	}
	return t.printer.Sprintf(msg.Key, msg.Args...)
}

func resolveLocale(locale string) language.Tag {
	l := strings.ToLower(strings.ReplaceAll(locale, "_", "-"))
	if strings.HasPrefix(l, "zh") {
		return language.SimplifiedChinese
	}
	return language.English
}

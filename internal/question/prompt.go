package question

import (
	"fmt"
	"strings"
	"text/template"
)

// Variant selects the prompt template and matching parse mode.
type Variant string

const (
	// VariantPlain asks for a question, four options and the answer letter.
	VariantPlain Variant = "plain"
	// VariantHard asks for a harder question followed by a bulleted explanation.
	VariantHard Variant = "hard"
)

var prompts = map[Variant]*template.Template{
	VariantPlain: template.Must(template.New("plain").Parse(`
"{{.Subtopic}}" विषय पर हरियाणा CET / HSSC / HPSC स्तर का एक बहुविकल्पीय प्रश्न हिंदी में बनाएं।

❗ केवल इस फॉर्मेट में उत्तर दें (बिना किसी व्याख्या के):

प्रश्न: ...
A. ...
B. ...
C. ...
D. ...
उत्तर: A (या B, C, D — केवल एक अक्षर)`)),

	VariantHard: template.Must(template.New("hard").Parse(`
"{{.Subtopic}}" विषय पर हरियाणा CET / HSSC / HPSC स्तर का एक कठिन बहुविकल्पीय प्रश्न हिंदी में बनाएं।
प्रश्न ऐसा हो जिसमें सोचने की ज़रूरत पड़े, सीधा तथ्य नहीं।

❗ केवल इस फॉर्मेट में उत्तर दें:

प्रश्न: ...
A. ...
B. ...
C. ...
D. ...
उत्तर: A (या B, C, D — केवल एक अक्षर)
• व्याख्या की पहली पंक्ति
• व्याख्या की दूसरी पंक्ति (अधिकतम 3 पंक्तियाँ)`)),
}

// ParseVariant validates a configured variant name.
func ParseVariant(s string) (Variant, error) {
	v := Variant(strings.ToLower(strings.TrimSpace(s)))
	if v == "" {
		return VariantPlain, nil
	}
	if _, ok := prompts[v]; !ok {
		return "", fmt.Errorf("unknown question variant %q; allowed: plain, hard", s)
	}
	return v, nil
}

// RequiresExplanation reports whether text for this variant must carry an explanation.
func (v Variant) RequiresExplanation() bool {
	return v == VariantHard
}

// Render fills the variant's template with a subtopic.
func (v Variant) Render(subtopic string) (string, error) {
	tpl, ok := prompts[v]
	if !ok {
		return "", fmt.Errorf("unknown question variant %q", v)
	}
	var b strings.Builder
	if err := tpl.Execute(&b, struct{ Subtopic string }{subtopic}); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", v, err)
	}
	return strings.TrimSpace(b.String()), nil
}

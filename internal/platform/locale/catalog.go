package locale

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message/catalog"
)

// Message keys. The English text doubles as the key.
const (
	MsgApprovedTitle   = "Certificate Approved"
	MsgRejectedTitle   = "Certificate Rejected"
	MsgApprovedMessage = "Certificate for %s has been approved."
	MsgRejectedMessage = "Certificate for %s has been rejected."
)

// catalogLanguages lists supported languages; the first is the fallback.
var catalogLanguages = []language.Tag{language.English, language.Hindi}

var translations = map[language.Tag]map[string]string{
	language.English: {
		MsgApprovedTitle:   MsgApprovedTitle,
		MsgRejectedTitle:   MsgRejectedTitle,
		MsgApprovedMessage: MsgApprovedMessage,
		MsgRejectedMessage: MsgRejectedMessage,
	},
	language.Hindi: {
		MsgApprovedTitle:   "प्रमाणपत्र स्वीकृत",
		MsgRejectedTitle:   "प्रमाणपत्र अस्वीकृत",
		MsgApprovedMessage: "%s का प्रमाणपत्र स्वीकृत कर दिया गया है।",
		MsgRejectedMessage: "%s का प्रमाणपत्र अस्वीकृत कर दिया गया है।",
	},
}

func newCatalog() (*catalog.Builder, error) {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for _, tag := range catalogLanguages {
		for key, msg := range translations[tag] {
			if err := b.SetString(tag, key, msg); err != nil {
				return nil, fmt.Errorf("catalog %s %q: %w", tag, key, err)
			}
		}
	}
	return b, nil
}

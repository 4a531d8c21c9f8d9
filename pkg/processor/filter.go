package processor

// MissingLanguages returns the requested language codes the item has no
// subtitle stream for, preserving the requested order. An item with no
// subtitle streams is missing every requested language. Codes are expected
// to be normalized already (see language.NormalizeAll).
func MissingLanguages(item MediaItem, requested []string) []string {
	var missing []string
	for _, lang := range requested {
		if lang == "" || item.ExistingLanguages[lang] {
			continue
		}
		missing = append(missing, lang)
	}
	return missing
}

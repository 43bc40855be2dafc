package a

import "regexp"

func badRange(slugs []string) {
	for _, slug := range slugs {
		re := regexp.MustCompile(`^[a-z0-9-]+$`) // want "regexp.MustCompile called inside loop"
		_ = re.MatchString(slug)
	}
}

func badFor(ids []string) {
	for i := 0; i < len(ids); i++ {
		re, err := regexp.Compile(`^entity:`) // want "regexp.Compile called inside loop"
		if err != nil {
			return
		}
		_ = re.MatchString(ids[i])
	}
}

var reSlug = regexp.MustCompile(`^[a-z0-9-]+$`)

func good(slugs []string) {
	for _, slug := range slugs {
		_ = reSlug.MatchString(slug)
	}
}

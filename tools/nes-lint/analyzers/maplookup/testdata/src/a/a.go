package a

func bad(byID map[string]int, id string) {
	if byID[id] != 0 {
		use(byID[id]) // want "repeated map lookup"
	}
}

func badPointer(byID map[string]*record, id string) {
	if byID[id] != nil {
		usePtr(byID[id]) // want "repeated map lookup"
	}
}

func good(byID map[string]int, id string) {
	if v := byID[id]; v != 0 {
		use(v)
	}
}

func goodCommaOk(byID map[string]int, id string) {
	if v, ok := byID[id]; ok {
		use(v)
	}
}

func goodDifferentKeys(byID map[string]int, a, b string) {
	if byID[a] != 0 {
		use(byID[b]) // Different keys - OK
	}
}

type record struct{}

func use(v int)        {}
func usePtr(v *record) {}

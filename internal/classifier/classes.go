package classifier

// Class is one output slot. Index is the position in the head output, the
// text-embedding matrix, and the report table.
type Class struct {
	Index  int
	Label  string
	Prompt string
}

// DefaultClasses is the fixed three-way chest X-ray label set.
var DefaultClasses = []Class{
	{Index: 0, Label: "Normal", Prompt: "a normal chest X-ray"},
	{Index: 1, Label: "Pneumonia", Prompt: "an X-ray showing signs of pneumonia"},
	{Index: 2, Label: "COVID-19", Prompt: "an X-ray indicating COVID-19"},
}

// CheckPrompts verifies that prompts, as recorded alongside the text
// embeddings, name the same classes in the same order. A nil prompts slice
// means the file carries no record and is accepted.
func CheckPrompts(classes []Class, prompts []string) error {
	if prompts == nil {
		return nil
	}
	if len(prompts) != len(classes) {
		return errConfiguration("%d recorded prompts, %d classes", len(prompts), len(classes))
	}
	for i, c := range classes {
		if prompts[i] != c.Prompt {
			return errConfiguration("prompt %d is %q, want %q (%s)", i, prompts[i], c.Prompt, c.Label)
		}
	}
	return nil
}

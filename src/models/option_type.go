package models

import "fmt"

type OptionType string

const (
	Call OptionType = "call"
	Put  OptionType = "put"
)

func (o OptionType) Validate() error {
	if o != Call && o != Put {
		return fmt.Errorf("OptionType: Validate: invalid option type: %s", o)
	}

	return nil
}

// OptionTypeFromCode maps the single-character dataset encoding ("c"/"p")
// to an OptionType.
func OptionTypeFromCode(code string) OptionType {
	if code == "c" {
		return Call
	}

	return Put
}

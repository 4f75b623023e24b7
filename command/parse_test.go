package command

import (
	"testing"

	apperrors "github.com/kbukum/ollamacmd/errors"
)

func TestParse(t *testing.T) {
	tests := []struct {
		line     string
		want     Command
		wantCode apperrors.ErrorCode
	}{
		{"/ollama list", Command{Sub: SubList}, ""},
		{"ollama serve", Command{Sub: SubServe}, ""},
		{"  /OLLAMA   PS  ", Command{Sub: SubPs}, ""},
		{"/ollama model llama3", Command{Sub: SubModel, Arg: "llama3"}, ""},
		{"/ollama model   my model  ", Command{Sub: SubModel, Arg: "my model"}, ""},
		{"/ollama run mistral", Command{Sub: SubRun, Arg: "mistral"}, ""},
		{"/ollama run", Command{Sub: SubRun}, ""},
		{"/ollama model", Command{}, apperrors.ErrCodeMissingField},
		{"/ollama", Command{}, apperrors.ErrCodeMissingField},
		{"/ollama pull llama3", Command{}, apperrors.ErrCodeInvalidInput},
		{"/say hi", Command{}, apperrors.ErrCodeInvalidInput},
		{"", Command{}, apperrors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := Parse(tt.line)
			if tt.wantCode != "" {
				if apperrors.CodeOf(err) != tt.wantCode {
					t.Fatalf("Parse(%q) err = %v, want %s", tt.line, err, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) err = %v", tt.line, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.line, got, tt.want)
			}
		})
	}
}

package extract

import "testing"

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"whitespace only", " \n\t \r\n ", ""},
		{"crlf to lf", "line one\r\nline two", "line one\nline two"},
		{"single newline kept", "a\nb", "a\nb"},
		{"paragraph breaks collapse to a space", "a\n\n\n\nb", "a b"},
		{"runs of spaces collapse", "too    many   spaces", "too many spaces"},
		{"tabs and spaces collapse", "col1\t\tcol2 \tcol3", "col1 col2 col3"},
		{"unicode spaces collapse", "a\u00a0 b\u3000 c", "a b c"},
		{"trimmed", "  padded text \n", "padded text"},
		{"single tab kept", "a\tb", "a\tb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clean(tt.in); got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestClean_Idempotent(t *testing.T) {
	in := "Check out\r\n\r\n\r\nmy   new product!  \n It is amazing."
	once := Clean(in)
	if twice := Clean(once); twice != once {
		t.Errorf("Clean not idempotent: %q then %q", once, twice)
	}
}

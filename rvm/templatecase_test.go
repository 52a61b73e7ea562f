package rvm

import "testing"

func TestApplyIntrinsic(t *testing.T) {
	tests := []struct {
		name      string
		intrinsic TemplateIntrinsic
		input     string
		want      string
	}{
		{"uppercase", IntrinsicUppercase, "hello", "HELLO"},
		{"lowercase", IntrinsicLowercase, "HELLO", "hello"},
		{"capitalize", IntrinsicCapitalize, "hello", "Hello"},
		{"uncapitalize", IntrinsicUncapitalize, "Hello", "hello"},
		{"capitalize empty string", IntrinsicCapitalize, "", ""},
		{"uncapitalize empty string", IntrinsicUncapitalize, "", ""},
		{"unknown intrinsic passes through", TemplateIntrinsic("Reverse"), "hello", "hello"},
		// A multi-byte leading rune must survive intact: slicing by byte
		// would split it and corrupt the string.
		{"capitalize multi-byte leading rune", IntrinsicCapitalize, "école", "École"},
		{"uncapitalize multi-byte leading rune", IntrinsicUncapitalize, "Étude", "étude"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := applyIntrinsic(tt.intrinsic, tt.input)
			if got != tt.want {
				t.Errorf("applyIntrinsic(%s, %q) = %q, want %q", tt.intrinsic, tt.input, got, tt.want)
			}
		})
	}
}

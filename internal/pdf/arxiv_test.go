package pdf

import (
	"path/filepath"
	"testing"
)

func TestFindArXivID(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "margin stamp",
			text: "arXiv:1706.03762v7 [cs.CL] 2 Aug 2023\nAttention Is All You Need",
			want: "1706.03762v7",
		},
		{
			name: "stamp with space",
			text: "arXiv: 2106.15928 [q-bio.PE]",
			want: "2106.15928",
		},
		{
			name: "old style",
			text: "arXiv:hep-th/9901001v1 4 Jan 1999",
			want: "hep-th/9901001v1",
		},
		{
			name: "link only",
			text: "Code at https://arxiv.org/abs/2301.00001 and elsewhere",
			want: "2301.00001",
		},
		{
			name: "stamp preferred over link",
			text: "see arxiv.org/abs/1111.2222 ... arXiv:2106.15928v1",
			want: "2106.15928v1",
		},
		{
			name: "none",
			text: "Journal of Things, volume 3, doi 10.1038/nature12373",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := findArXivID(tt.text); got != tt.want {
				t.Errorf("findArXivID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractArXivID_MissingFile(t *testing.T) {
	_, err := ExtractArXivID(filepath.Join(t.TempDir(), "missing.pdf"))
	if err == nil {
		t.Error("ExtractArXivID() should fail for a missing file")
	}
}

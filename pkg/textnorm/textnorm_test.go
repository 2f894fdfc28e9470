package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"only spaces", "   \t\n ", ""},
		{"diacritics", "Điểm trung bình HỌC KỲ 2", "diem trung binh hoc ky 2"},
		{"collapse spaces", "  gpa   của   tôi  ", "gpa cua toi"},
		{"csdl alias", "điểm CSDL", "diem co so du lieu"},
		{"lt web alias", "deadline lt web", "deadline lap trinh web"},
		{"ttcn before cn", "ttcn khi nào", "thuc tap chuyen nganh khi nao"},
		{"cn alias", "môn cn", "mon chuyen nganh"},
		{"cn inside word untouched", "cnpm", "cnpm"},
		{"do an alias", "Đồ án", "do an tot nghiep"},
		{"do an already expanded", "đồ án tốt nghiệp", "do an tot nghiep"},
		{"kh&cn alias", "Học viện KH&CN", "hoc vien khoa hoc va cong nghe"},
		{"english untouched", "What is my GPA?", "what is my gpa?"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"Đồ  án của tôi",
		"điểm CSDL và lt web",
		"TTCN, TTTN, CN",
		"kh&cn kh&cn",
		"Toán cao cấp 2 - HK3",
		"ﬁ ligature ǅ",
	}

	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestFold(t *testing.T) {
	assert.Equal(t, "dam bao chat luong", Fold("Đảm bảo chất lượng"))
	assert.Equal(t, "  x  ", Fold("  X  "))
}

func TestTokensAndHasToken(t *testing.T) {
	assert.Equal(t, []string{"what", "is", "my", "gpa"}, Tokens("what is my gpa?"))
	assert.True(t, HasToken("hi there", "hi", "hello"))
	assert.False(t, HasToken("lich thi", "hi"))
}

func TestContainsAny(t *testing.T) {
	assert.True(t, ContainsAny("han nop bai tap", "deadline", "han nop"))
	assert.False(t, ContainsAny("gpa", "deadline"))
}

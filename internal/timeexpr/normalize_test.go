package timeexpr

import (
	"strings"
	"testing"
)

func tokenString(toks []Token) string {
	parts := make([]string, len(toks))
	for i, t := range toks {
		parts[i] = t.String()
	}
	return strings.Join(parts, " ")
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"whitespace", "   \t ", ""},
		{"fillers only", "please remind me", ""},
		{"korean clock with particle", "3시에", "number(3) unit(oclock)"},
		{"korean sentence", "내일 오후 3시에 회의", "day(+1) period(pm,15) number(3) unit(oclock) word"},
		{"glued am pm", "3pm", "number(3) meridiem(pm)"},
		{"dotted meridiem", "7 a.m.", "number(7) meridiem(am)"},
		{"ordinal suffix", "the 5th", "number(5)"},
		{"english compound number", "twenty five minutes", "number(25) unit(minute)"},
		{"hyphenated number", "forty-five minutes", "number(45) unit(minute)"},
		{"article as one", "an hour from now", "number(1) unit(hour) later"},
		{"half an hour", "in half an hour", "in number(30) unit(minute)"},
		{"native numeral", "세시 반", "number(3) unit(oclock) half"},
		{"native numeral two syllables", "열두시", "number(12) unit(oclock)"},
		{"native numeral before hour unit", "한시간 반 후", "number(1) unit(hour) half later"},
		{"sino numeral", "이십분 뒤", "number(20) unit(minute) later"},
		{"separate numeral run", "한 달 후", "number(1) unit(month) later"},
		{"bare numeral dropped", "네", ""},
		{"next next week", "다다음주", "next next unit(week)"},
		{"weekday", "다음주 금요일", "next unit(week) weekday(Friday)"},
		{"clock", "at 3:30 pm", "at clock(3:30) meridiem(pm)"},
		{"clock with seconds", "14:30:15", "clock(14:30)"},
		{"iso date", "2024-03-05", "date(2024-3-5)"},
		{"slash date", "3/5", "date(0-3-5)"},
		{"slash date with short year", "3/5/25", "date(2025-3-5)"},
		{"month name", "December 25th", "month(12) number(25)"},
		{"korean month day", "3월 5일", "number(3) unit(month_of_year) number(5) unit(day_of_month)"},
		{"korean year", "2025년", "number(2025) unit(year)"},
		{"oclock", "five o'clock", "number(5) unit(oclock)"},
		{"tonight", "tonight", "day(+0) period(pm,21)"},
		{"unknown word kept", "dentist", "word"},
		{"mixed case", "TOMORROW Morning", "day(+1) period(am,9)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tokenString(Normalize(tt.input))
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalize_OrdinalFlag(t *testing.T) {
	toks := Normalize("5th")
	if len(toks) != 1 || !toks[0].Ordinal {
		t.Fatalf("Normalize(5th) = %v, want one ordinal number", toks)
	}

	toks = Normalize("fifth")
	if len(toks) != 1 || !toks[0].Ordinal || toks[0].Value != 5 {
		t.Fatalf("Normalize(fifth) = %v, want ordinal 5", toks)
	}
}

func TestNormalize_KeepsSourceText(t *testing.T) {
	toks := Normalize("내일 3시")
	if len(toks) != 3 {
		t.Fatalf("len = %d, want 3", len(toks))
	}
	if toks[0].Text != "내일" {
		t.Errorf("Text = %q, want %q", toks[0].Text, "내일")
	}
	if toks[1].Text != "3" {
		t.Errorf("Text = %q, want %q", toks[1].Text, "3")
	}
}

func TestSinoValue(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"일", 1, true},
		{"십", 10, true},
		{"십오", 15, true},
		{"이십", 20, true},
		{"삼십오", 35, true},
		{"백이십", 120, true},
		{"십십", 0, false},
		{"이삼", 0, false},
		{"가", 0, false},
	}

	for _, tt := range tests {
		got, ok := sinoValue([]rune(tt.in))
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("sinoValue(%q) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

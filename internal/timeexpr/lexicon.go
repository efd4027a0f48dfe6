package timeexpr

import "time"

func unit(u Unit) Token           { return Token{Kind: TokUnit, Unit: u} }
func dayWord(offset int) Token    { return Token{Kind: TokDayWord, Value: offset} }
func weekday(d time.Weekday) Token { return Token{Kind: TokWeekday, Value: int(d)} }
func period(m Meridiem, hour int) Token {
	return Token{Kind: TokPeriod, Meridiem: m, Value: hour}
}
func kind(k TokenKind) Token { return Token{Kind: k} }
func number(n int) Token     { return Token{Kind: TokNumber, Value: n} }

// englishWords maps a lowercased English word to the tokens it stands for.
var englishWords = map[string][]Token{
	"today":     {dayWord(0)},
	"tonight":   {dayWord(0), period(PM, 21)},
	"tomorrow":  {dayWord(1)},
	"tmrw":      {dayWord(1)},
	"next":      {kind(TokNext)},
	"this":      {kind(TokThis)},
	"coming":    {kind(TokThis)},
	"in":        {kind(TokIn)},
	"within":    {kind(TokIn)},
	"after":     {kind(TokIn)},
	"later":     {kind(TokLater)},
	"at":        {kind(TokAt)},
	"around":    {kind(TokAt)},

	"am": {{Kind: TokMeridiem, Meridiem: AM}},
	"pm": {{Kind: TokMeridiem, Meridiem: PM}},

	"morning":   {period(AM, 9)},
	"noon":      {kind(TokNoon)},
	"midday":    {kind(TokNoon)},
	"lunch":     {period(PM, 12)},
	"afternoon": {period(PM, 15)},
	"evening":   {period(PM, 19)},
	"night":     {period(PM, 21)},
	"midnight":  {kind(TokMidnight)},
	"dawn":      {period(AM, 6)},

	"o'clock": {unit(UnitOClock)},
	"oclock":  {unit(UnitOClock)},
	"year":    {unit(UnitYear)},
	"years":   {unit(UnitYear)},
	"month":   {unit(UnitMonth)},
	"months":  {unit(UnitMonth)},
	"week":    {unit(UnitWeek)},
	"weeks":   {unit(UnitWeek)},
	"day":     {unit(UnitDay)},
	"days":    {unit(UnitDay)},
	"hour":    {unit(UnitHour)},
	"hours":   {unit(UnitHour)},
	"hr":      {unit(UnitHour)},
	"hrs":     {unit(UnitHour)},
	"minute":  {unit(UnitMinute)},
	"minutes": {unit(UnitMinute)},
	"min":     {unit(UnitMinute)},
	"mins":    {unit(UnitMinute)},
	"half":    {kind(TokHalf)},

	"sunday":    {weekday(time.Sunday)},
	"sun":       {weekday(time.Sunday)},
	"monday":    {weekday(time.Monday)},
	"mon":       {weekday(time.Monday)},
	"tuesday":   {weekday(time.Tuesday)},
	"tue":       {weekday(time.Tuesday)},
	"tues":      {weekday(time.Tuesday)},
	"wednesday": {weekday(time.Wednesday)},
	"wed":       {weekday(time.Wednesday)},
	"thursday":  {weekday(time.Thursday)},
	"thu":       {weekday(time.Thursday)},
	"thurs":     {weekday(time.Thursday)},
	"friday":    {weekday(time.Friday)},
	"fri":       {weekday(time.Friday)},
	"saturday":  {weekday(time.Saturday)},
	"sat":       {weekday(time.Saturday)},
}

var englishMonths = map[string]int{
	"january": 1, "jan": 1,
	"february": 2, "feb": 2,
	"march": 3, "mar": 3,
	"april": 4, "apr": 4,
	"may":  5,
	"june": 6, "jun": 6,
	"july": 7, "jul": 7,
	"august": 8, "aug": 8,
	"september": 9, "sep": 9, "sept": 9,
	"october": 10, "oct": 10,
	"november": 11, "nov": 11,
	"december": 12, "dec": 12,
}

var englishOnes = map[string]int{
	"zero": 0, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6,
	"seven": 7, "eight": 8, "nine": 9, "ten": 10, "eleven": 11, "twelve": 12,
	"thirteen": 13, "fourteen": 14, "fifteen": 15, "sixteen": 16, "seventeen": 17,
	"eighteen": 18, "nineteen": 19,
}

var englishTens = map[string]int{
	"twenty": 20, "thirty": 30, "forty": 40, "fifty": 50, "sixty": 60,
}

var englishOrdinals = map[string]int{
	"first": 1, "second": 2, "third": 3, "fourth": 4, "fifth": 5, "sixth": 6,
	"seventh": 7, "eighth": 8, "ninth": 9, "tenth": 10, "eleventh": 11,
	"twelfth": 12, "thirteenth": 13, "fourteenth": 14, "fifteenth": 15,
	"sixteenth": 16, "seventeenth": 17, "eighteenth": 18, "nineteenth": 19,
	"twentieth": 20, "thirtieth": 30,
}

var ordinalSuffixes = map[string]bool{"st": true, "nd": true, "rd": true, "th": true}

// englishFillers are dropped without leaving a word token behind.
var englishFillers = map[string]bool{
	"the": true, "on": true, "of": true, "to": true, "for": true, "please": true,
	"remind": true, "me": true, "and": true, "by": true, "about": true,
	"approximately": true, "s": true, "hey": true, "um": true, "uh": true,
	"set": true, "reminder": true, "alarm": true, "from": true, "now": true,
	"an": true, "a": true,
}

// koreanWords maps a Hangul keyword to its tokens. Segmentation prefers the
// longest entry at each position.
var koreanWords = map[string][]Token{
	"오늘":    {dayWord(0)},
	"금일":    {dayWord(0)},
	"내일":    {dayWord(1)},
	"낼":     {dayWord(1)},
	"다음날":   {dayWord(1)},
	"이튿날":   {dayWord(1)},
	"모레":    {dayWord(2)},
	"내일모레":  {dayWord(2)},
	"낼모레":   {dayWord(2)},
	"글피":    {dayWord(3)},
	"다음":    {kind(TokNext)},
	"담":     {kind(TokNext)},
	"다음주":   {kind(TokNext), unit(UnitWeek)},
	"담주":    {kind(TokNext), unit(UnitWeek)},
	"다다음주":  {kind(TokNext), kind(TokNext), unit(UnitWeek)},
	"다음달":   {kind(TokNext), unit(UnitMonth)},
	"내년":    {kind(TokNext), unit(UnitYear)},
	"이번":    {kind(TokThis)},
	"이번주":   {kind(TokThis), unit(UnitWeek)},
	"일주일":   {number(1), unit(UnitWeek)},
	"주일":    {unit(UnitWeek)},
	"시월":    {number(10), unit(UnitMonthOfYear)},
	"유월":    {number(6), unit(UnitMonthOfYear)},
	"월요일":   {weekday(time.Monday)},
	"화요일":   {weekday(time.Tuesday)},
	"수요일":   {weekday(time.Wednesday)},
	"목요일":   {weekday(time.Thursday)},
	"금요일":   {weekday(time.Friday)},
	"토요일":   {weekday(time.Saturday)},
	"일요일":   {weekday(time.Sunday)},
	"오전":    {period(AM, 9)},
	"아침":    {period(AM, 9)},
	"새벽":    {period(AM, 6)},
	"오후":    {period(PM, 15)},
	"낮":     {period(PM, 14)},
	"점심":    {period(PM, 12)},
	"저녁":    {period(PM, 19)},
	"밤":     {period(PM, 21)},
	"정오":    {kind(TokNoon)},
	"자정":    {kind(TokMidnight)},
	"년":     {unit(UnitYear)},
	"월":     {unit(UnitMonthOfYear)},
	"달":     {unit(UnitMonth)},
	"개월":    {unit(UnitMonth)},
	"주":     {unit(UnitWeek)},
	"일":     {unit(UnitDayOfMonth)},
	"시":     {unit(UnitOClock)},
	"시간":    {unit(UnitHour)},
	"분":     {unit(UnitMinute)},
	"반":     {kind(TokHalf)},
	"후":     {kind(TokLater)},
	"뒤":     {kind(TokLater)},
	"이후":    {kind(TokLater)},
	"뒤에":    {kind(TokLater)},
	"있다가":   {kind(TokLater)},
	"이따가":   {kind(TokLater)},
}

// koreanParticles are postpositions dropped when they form a whole unknown span.
var koreanParticles = map[string]bool{
	"에": true, "에서": true, "에는": true, "까지": true, "까지는": true, "부터": true,
	"쯤": true, "쯤에": true, "경": true, "경에": true, "정도": true, "께": true,
	"은": true, "는": true, "이": true, "가": true, "을": true, "를": true, "도": true,
	"요": true, "에요": true, "예요": true, "으로": true, "로": true,
}

var maxKoreanWordLen = func() int {
	n := 0
	for w := range koreanWords {
		if l := len([]rune(w)); l > n {
			n = l
		}
	}
	return n
}()

// koreanUnitRunes are the Hangul syllables that may follow a numeral.
var koreanUnitRunes = map[rune]bool{
	'년': true, '월': true, '달': true, '개': true, '주': true, '일': true,
	'시': true, '분': true, '반': true,
}

var sinoDigits = map[rune]int{
	'일': 1, '이': 2, '삼': 3, '사': 4, '오': 5, '육': 6, '륙': 6, '칠': 7, '팔': 8, '구': 9,
}

// nativeNumerals covers native Korean counting words from 1 to 39.
var nativeNumerals = func() map[string]int {
	ones := map[string]int{
		"": 0, "한": 1, "하나": 1, "두": 2, "둘": 2, "세": 3, "셋": 3, "네": 4, "넷": 4,
		"다섯": 5, "여섯": 6, "일곱": 7, "여덟": 8, "아홉": 9,
	}
	tens := map[string]int{"": 0, "열": 10, "스물": 20, "서른": 30}
	m := make(map[string]int)
	for ts, tv := range tens {
		for os, ov := range ones {
			if ts == "" && os == "" {
				continue
			}
			m[ts+os] = tv + ov
		}
	}
	m["스무"] = 20
	return m
}()

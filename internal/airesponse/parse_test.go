package airesponse

import "testing"

func TestParseExtractsEmbeddedObject(t *testing.T) {
	text := "Here is my analysis:\n```json\n" +
		`{"analysis": {"1d": "Uptrend intact", "4h": "Pullback to support", "1h": {"rsi": 41}}, "reasoning": "Confluence at 64k"}` +
		"\n```\nGood luck."

	res := Parse(text)
	n, ok := res.Narrative()
	if !ok {
		t.Fatalf("expected parsed result, raw = %q", res.Raw())
	}
	if n.Reasoning != "Confluence at 64k" {
		t.Errorf("reasoning = %q", n.Reasoning)
	}
	if len(n.Timeframes) != 3 {
		t.Fatalf("timeframes = %+v", n.Timeframes)
	}
	want := []TimeframeNote{
		{"1d", "Uptrend intact"},
		{"4h", "Pullback to support"},
		{"1h", `{"rsi":41}`},
	}
	for i, w := range want {
		if n.Timeframes[i] != w {
			t.Errorf("timeframe[%d] = %+v, want %+v", i, n.Timeframes[i], w)
		}
	}
	if res.Raw() != text {
		t.Errorf("raw text must be preserved")
	}
}

func TestParseWithoutObjectIsUnparsed(t *testing.T) {
	res := Parse("No setup found on any timeframe.")
	if res.Parsed() {
		t.Fatal("expected unparsed result")
	}
	if n, ok := res.Narrative(); ok || n != nil {
		t.Errorf("Narrative() = %v, %v", n, ok)
	}
	if res.Raw() != "No setup found on any timeframe." {
		t.Errorf("raw = %q", res.Raw())
	}
}

func TestParseMalformedJSONIsUnparsed(t *testing.T) {
	for _, text := range []string{
		`{"analysis": {"4h": "unterminated}`,
		`prefix { not json } suffix`,
		`}{`,
		"",
	} {
		if Parse(text).Parsed() {
			t.Errorf("Parse(%q) should not parse", text)
		}
	}
}

func TestParseMissingFieldsStillParses(t *testing.T) {
	res := Parse(`{"bias": "LONG"}`)
	n, ok := res.Narrative()
	if !ok {
		t.Fatal("a well-formed object must parse")
	}
	if len(n.Timeframes) != 0 || n.Reasoning != "" {
		t.Errorf("narrative = %+v", n)
	}
}

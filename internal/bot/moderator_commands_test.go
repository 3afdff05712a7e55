package bot

import "testing"

func TestCatalogsAreBuiltFromTranslatedLabels(t *testing.T) {
	t.Parallel()

	if len(paidServices) != 10 {
		t.Fatalf("expected 10 paid services, got %d", len(paidServices))
	}
	if paidServices[0] != "pinning a listing for 3 days" || paidServices[9] != "publication + pinning + advertising for 7 days" {
		t.Fatalf("unexpected catalog bounds: %q .. %q", paidServices[0], paidServices[9])
	}
	seen := make(map[string]bool, len(translatedLabels))
	for _, label := range translatedLabels {
		seen[label] = true
	}
	for _, kind := range reviewKinds {
		if !seen[kind.noun] {
			t.Fatalf("review noun %q is not a translated label", kind.noun)
		}
	}
	if reviewKinds[3].prefix != "an" || reviewKinds[3].noun != "advertising" {
		t.Fatalf("unexpected advertising kind %+v", reviewKinds[3])
	}
}

package luks

import "testing"

func TestParseTPM2Token(t *testing.T) {
	payload := []byte(`{"tpm2-pcrs":[0,7],"tpm2-pcr-bank":"sha256","tpm2-pin":true}`)

	token, err := parseTPM2Token(payload, []int{1})
	if err != nil {
		t.Fatalf("parseTPM2Token: %v", err)
	}
	if len(token.PCRs) != 2 || token.PCRs[0] != 0 || token.PCRs[1] != 7 {
		t.Errorf("PCRs = %v, want [0 7]", token.PCRs)
	}
	if token.PCRBank != "sha256" {
		t.Errorf("PCRBank = %q", token.PCRBank)
	}
	if !token.NeedsPIN {
		t.Error("NeedsPIN should be true")
	}
	if len(token.Keyslots) != 1 || token.Keyslots[0] != 1 {
		t.Errorf("Keyslots = %v, want [1]", token.Keyslots)
	}
}

func TestParseTPM2TokenDefaultsBank(t *testing.T) {
	token, err := parseTPM2Token([]byte(`{"tpm2-pcrs":[7]}`), nil)
	if err != nil {
		t.Fatalf("parseTPM2Token: %v", err)
	}
	if token.PCRBank != "sha256" {
		t.Errorf("PCRBank = %q, want sha256 default", token.PCRBank)
	}
	if token.NeedsPIN {
		t.Error("NeedsPIN should default to false")
	}
}

func TestParseTPM2TokenBadJSON(t *testing.T) {
	if _, err := parseTPM2Token([]byte("{not json"), nil); err == nil {
		t.Error("expected error for malformed payload")
	}
}

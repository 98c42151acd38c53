package enums

import "testing"

func TestParseOrderStatus(t *testing.T) {
	for _, status := range validOrderStatuses {
		got, err := ParseOrderStatus(status.String())
		if err != nil || got != status {
			t.Fatalf("round trip failed for %s: %v", status, err)
		}
	}
	if _, err := ParseOrderStatus("refunded"); err == nil {
		t.Fatalf("expected unknown status to fail")
	}
}

func TestPaymentMethodTypeValidity(t *testing.T) {
	if !PaymentMethodTypeCrypto.IsValid() {
		t.Fatalf("crypto should be valid")
	}
	if PaymentMethodType("cheque").IsValid() {
		t.Fatalf("cheque should be invalid")
	}
	if _, err := ParsePaymentMethodType("Card"); err == nil {
		t.Fatalf("payment method types are case sensitive")
	}
}

func TestParseBrand(t *testing.T) {
	got, err := ParseBrand(" Forge ")
	if err != nil || got != BrandForge {
		t.Fatalf("expected forge got %q err=%v", got, err)
	}
	if _, err := ParseBrand(""); err == nil {
		t.Fatalf("empty brand should fail")
	}
}

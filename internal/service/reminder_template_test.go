package service

import (
	"strings"
	"testing"
)

func TestReminderRendererLocalizesSubject(t *testing.T) {
	renderer := NewReminderRenderer()
	cases := []struct {
		locale string
		slot   int
		want   string
	}{
		{locale: "en-US", slot: 1, want: "Alice, your cart is waiting for you"},
		{locale: "zh-CN", slot: 1, want: "Alice，您的购物车还在等您"},
		{locale: "en-US", slot: 2, want: "Don't miss out: 3 items in your cart"},
		{locale: "zh-TW", slot: 2, want: "別錯過：購物車中的 3 件商品"},
	}
	for _, tc := range cases {
		rendered, err := renderer.Render(ReminderContent{Locale: tc.locale, Name: "Alice", Slot: tc.slot, ItemCount: 3})
		if err != nil {
			t.Fatalf("render %s slot %d failed: %v", tc.locale, tc.slot, err)
		}
		if rendered.Subject != tc.want {
			t.Fatalf("render %s slot %d want %q got %q", tc.locale, tc.slot, tc.want, rendered.Subject)
		}
	}
}

func TestReminderRendererFinalWithoutDiscountUsesRegularSubject(t *testing.T) {
	rendered, err := NewReminderRenderer().Render(ReminderContent{Locale: "en-US", Slot: 3, FinalSlot: true, ItemCount: 1})
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if rendered.Subject != "Don't miss out: 1 items in your cart" {
		t.Fatalf("unexpected subject: %q", rendered.Subject)
	}
	if strings.Contains(rendered.Text, "Enter code") {
		t.Fatalf("discount line must be absent")
	}
}

func TestReminderRendererEscapesHTML(t *testing.T) {
	rendered, err := NewReminderRenderer().Render(ReminderContent{
		Locale:      "en-US",
		Name:        "<b>Mallory</b>",
		Slot:        1,
		Items:       []ReminderItem{{Title: "Mug <script>", Quantity: 1, LineTotal: "9.90"}},
		CartTotal:   "9.90",
		RecoveryURL: "https://shop.example.com/r?token=x",
	})
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if strings.Contains(rendered.HTML, "<script>") || strings.Contains(rendered.HTML, "<b>Mallory") {
		t.Fatalf("html body must escape user content: %s", rendered.HTML)
	}
	if !strings.Contains(rendered.Text, "Mug <script> x1  9.90") {
		t.Fatalf("text body should keep raw content: %s", rendered.Text)
	}
	if !strings.Contains(rendered.HTML, "&lt;b&gt;Mallory") {
		t.Fatalf("escaped greeting missing: %s", rendered.HTML)
	}
}

func TestReminderRendererDefaultName(t *testing.T) {
	rendered, err := NewReminderRenderer().Render(ReminderContent{Locale: "en-US", Slot: 1})
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !strings.HasPrefix(rendered.Text, "Hi there,") {
		t.Fatalf("unexpected greeting: %q", rendered.Text)
	}
}

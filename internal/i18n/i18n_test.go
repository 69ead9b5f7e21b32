package i18n

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestNormalizeLocale(t *testing.T) {
	cases := map[string]string{
		"":           LocaleZH,
		"zh":         LocaleZH,
		"zh-HK":      LocaleTW,
		"zh-Hant-TW": LocaleTW,
		"en-GB":      LocaleEN,
		"fr-FR":      LocaleZH,
	}
	for input, want := range cases {
		if got := NormalizeLocale(input); got != want {
			t.Fatalf("normalize %q want %s got %s", input, want, got)
		}
	}
}

func TestResolveLocalePrefersQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/api/v1/recovery/x?lang=en-US", nil)
	c.Request.Header.Set("Accept-Language", "zh-TW,zh;q=0.9")
	if got := ResolveLocale(c); got != LocaleEN {
		t.Fatalf("query lang should win, got %s", got)
	}

	c, _ = gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/api/v1/recovery/x", nil)
	c.Request.Header.Set("Accept-Language", "zh-TW,zh;q=0.9")
	if got := ResolveLocale(c); got != LocaleTW {
		t.Fatalf("accept-language want zh-TW got %s", got)
	}
}

func TestTFallsBack(t *testing.T) {
	if got := T(LocaleEN, "error.recovery_link_expired"); got != "This recovery link has expired" {
		t.Fatalf("unexpected en message: %s", got)
	}
	if got := T(LocaleEN, "missing.key"); got != "missing.key" {
		t.Fatalf("missing key should echo key, got %s", got)
	}
	for _, locale := range []string{LocaleZH, LocaleTW, LocaleEN} {
		for key := range messages[LocaleZH] {
			if _, ok := messages[locale][key]; !ok {
				t.Fatalf("locale %s missing key %s", locale, key)
			}
		}
	}
}

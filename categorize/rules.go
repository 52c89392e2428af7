package categorize

import (
	"sort"
	"strings"
)

// Keyword is one URL category keyword. Whole keywords only match when
// bounded by non-alphanumeric characters or segment edges, so that "ad"
// does not match inside "download". A keyword matches within one URL
// segment and may not contain a segment delimiter.
type Keyword struct {
	Text  string `json:"text"`
	Whole bool   `json:"whole,omitempty"`
}

// URLCategory is a named bucket of keywords.
type URLCategory struct {
	Name     string    `json:"name"`
	Keywords []Keyword `json:"keywords"`
}

// wholeWords is the set of short, ambiguous keywords matched as whole words
// in the default categories.
var wholeWords = map[string]bool{
	"ad": true, "ads": true, "log": true, "js": true, "css": true,
	"img": true, "lib": true, "qq": true, "glu": true, "live": true,
	"sms": true, "mms": true, "raid": true, "svc": true, "sdk": true,
}

// WholeWords returns the default whole-word keyword set, sorted.
func WholeWords() []string {
	out := make([]string, 0, len(wholeWords))
	for w := range wholeWords {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

func keywords(words ...string) []Keyword {
	out := make([]Keyword, len(words))
	for i, w := range words {
		out[i] = Keyword{Text: w, Whole: wholeWords[w]}
	}
	return out
}

// DefaultURLCategories returns the built-in category list. Order is
// significant: the first category with a matching keyword wins.
func DefaultURLCategories() []URLCategory {
	return []URLCategory{
		{"known_malware_paths", keywords("update_soft", "latest.php", "order.php")},
		{"c2_servers", keywords("lebar.gicp.net", "master-code.ru", "go108", "anzhuo7", "5k3g", "msreplier", "hidroid")},
		{"sms_fraud", keywords("nnetonline", "sms", "mms", "monternet", "zong")},
		{"dynamic_dns", keywords("gicp.net", "no-ip", "dyndns", "duckdns")},
		{"vpon_specific", keywords("vpon.com")},
		{"mydas_specific", keywords("mydas.mobi")},
		{"wooboo_specific", keywords("wooboo")},
		{"casee_specific", keywords("casee")},
		{"webview_endpoints", keywords("webview", "bridge", "mraid", "raid")},
		{"chinese_domains_expanded", keywords("baidu", "qq", "sina", "taobao", "aliexpress", "tmall", "jd.com")},
		{"adult", keywords("porn", "youporn", "xxx", "adult", "xvideo")},
		{"ad_requests", keywords("ad", "ads", "getad", "showad", "click", "impression", "banner", "interstitial")},
		{"score_endpoints", keywords("score", "leaderboard", "rank", "highscore", "achievement")},
		{"game_networks", keywords("gameloft", "scoreloop", "herocraft", "glu", "outfit7")},
		{"tracking", keywords("log", "track", "event", "metric")},
		{"file_transfer", keywords("download", "upload", "file", "apk", "zip")},
		{"config_endpoints", keywords("config", "init", "check", "report", "getinfo")},
		{"static_content", keywords("static", "image", "images", "img", "css", "js", "resource", "resources", "asset", "assets", "content", "lib", "media", "schema", "schemas")},
		{"app_dev", keywords("appspot", "herokuapp", "firebaseio", "parseapp")},
		{"api_calls", keywords("api", "restserver", "oauth", "sdk", "svc", "service")},
		{"media_files", keywords(".mp4", ".mp3", ".jpg", ".png", ".gif", ".xml", ".json", ".js", ".css")},
		{"app_markets", keywords("play.google.com", "market.android.com", "amazon.comgpmas", "91.com")},
		{"google_services", keywords("google", "gstatic", "googleapis", "doubleclick", "googlesyndication")},
		{"facebook", keywords("facebook", "fbcdn", "graph.facebook")},
		{"twitter", keywords("twitter", "twimg", "t.twitter")},
		{"microsoft", keywords("microsoft", "azure", "live", "outlook", "skype")},
		{"amazon", keywords("amazonaws", "amazon")},
	}
}

// DottedRules coarsens fully-qualified dotted names (API calls, library
// packages). Rules are evaluated in order: a name under a Sensitive prefix
// is kept verbatim, a name under a Collapse prefix becomes that prefix, and
// anything else is truncated to its first Segments segments.
type DottedRules struct {
	Sensitive []string `json:"sensitive,omitempty"`
	Collapse  []string `json:"collapse,omitempty"`
	Segments  int      `json:"segments"`
}

// DefaultDottedRules truncates every name to three segments.
func DefaultDottedRules() DottedRules {
	return DottedRules{Segments: 3}
}

// PackageDottedRules keeps security-relevant packages in full, collapses
// common framework packages to the package name and truncates the rest to
// three segments.
func PackageDottedRules() DottedRules {
	return DottedRules{
		Sensitive: []string{
			"android.telephony",
			"android.location",
			"android.net",
			"android.accounts",
			"android.provider.ContactsContract",
			"android.webkit",
			"android.app.admin",
			"android.content.ClipboardManager",
			"java.net",
			"java.io",
			"javax.crypto",
		},
		Collapse: []string{
			"android.graphics",
			"android.view",
			"android.widget",
			"android.os",
			"android.content",
			"android.util",
			"java.lang",
			"java.util",
		},
		Segments: 3,
	}
}

// ParseDottedRules resolves a preset name: "truncate" or "package".
func ParseDottedRules(name string) (DottedRules, bool) {
	switch strings.ToLower(name) {
	case "", "truncate":
		return DefaultDottedRules(), true
	case "package":
		return PackageDottedRules(), true
	}
	return DottedRules{}, false
}

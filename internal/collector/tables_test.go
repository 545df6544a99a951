package collector

import "testing"

const timeBase = "https://www.time4education.com/"

func TestExtractTableRows(t *testing.T) {
	html := `<table>
<tr><th>Type</th><th>Title</th><th>Date</th></tr>
<tr><td>Result</td><td><a href="local/articlecms/page.php?id=1">CAT 2023 scores</a></td><td>05-Jan-2024</td></tr>
<tr><td>Notification</td><td><a href="/local/articlecms/page.php?id=2">IBPS PO Admit Card</a></td><td>12 Feb 2024</td></tr>
<tr><td>Article</td><td><a href="/local/articlecms/page.php?id=3">Preparation strategy</a></td><td>soon</td></tr>
<tr><td>Result</td><td>no link</td><td>05-Jan-2024</td></tr>
<tr><td>only</td><td>two cells</td></tr>
</table>`

	x, err := ExtractTableRows(html, timeBase, "T.I.M.E.")
	if err != nil {
		t.Fatalf("ExtractTableRows error: %v", err)
	}
	if len(x.Items) != 3 {
		t.Fatalf("expected 3 items, got %d: %+v", len(x.Items), x.Items)
	}
	if x.Dropped != 1 {
		t.Fatalf("expected 1 dropped row, got %d", x.Dropped)
	}

	if x.Items[0].Channel != ChannelResult {
		t.Fatalf("type hint result should be fallback, got %q", x.Items[0].Channel)
	}
	if x.Items[0].URL != "https://www.time4education.com/local/articlecms/page.php?id=1" {
		t.Fatalf("unexpected url: %q", x.Items[0].URL)
	}
	if x.Items[0].Date == nil || x.Items[0].Date.Format("2006-01-02") != "2024-01-05" {
		t.Fatalf("unexpected date: %v", x.Items[0].Date)
	}
	if x.Items[1].Channel != ChannelAdmitCard {
		t.Fatalf("title keyword should outrank type hint, got %q", x.Items[1].Channel)
	}
	if x.Items[2].Channel != ChannelNews || x.Items[2].Date != nil {
		t.Fatalf("unexpected third item: %+v", x.Items[2])
	}
}

func TestExtractHeadingBlocks(t *testing.T) {
	html := `<div>
<h2>Notifications / Results</h2>
<ul><li><a href="/n1">SBI PO Result declared</a></li><li><a href="/n2">Exam calendar</a></li></ul>
<p>text <a href="/n3">RBI Grade B vacancy</a></p>
<a href="/n4">Standalone link</a>
<h3>Sub heading</h3>
<p><a href="/n5">Under sub heading</a></p>
<h2>News / Articles</h2>
<div><a href="/a1">Weekly current affairs</a></div>
<h2>Other</h2>
<div><a href="/o1">Ignored</a></div>
</div>`

	rules := []HeadingRule{
		{Match: "notifications / results", Channel: ChannelNotification},
		{Match: "news / articles", Channel: ChannelNews},
	}
	x, err := ExtractHeadingBlocks(html, timeBase, "T.I.M.E.", "", rules)
	if err != nil {
		t.Fatalf("ExtractHeadingBlocks error: %v", err)
	}

	got := map[string]Channel{}
	for _, it := range x.Items {
		got[it.URL] = it.Channel
		if it.Date != nil {
			t.Fatalf("heading blocks carry no date, got %v", it.Date)
		}
	}
	want := map[string]Channel{
		timeBase + "n1": ChannelResult,
		timeBase + "n2": ChannelNotification,
		timeBase + "n3": ChannelJobs,
		timeBase + "n4": ChannelNotification,
		timeBase + "n5": ChannelNotification,
		timeBase + "a1": ChannelNews,
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d links, got %d: %+v", len(want), len(got), got)
	}
	for u, ch := range want {
		if got[u] != ch {
			t.Fatalf("link %s channel = %q, want %q", u, got[u], ch)
		}
	}
	if _, ok := got[timeBase+"o1"]; ok {
		t.Fatalf("links after a non-matching heading must be ignored")
	}
}

package exploits

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(recs []Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}

func sampleCatalog() *Catalog {
	return NewCatalog([]Record{
		{ID: "1", Signatures: "", Description: "Apache Struts RCE", Type: "webapps", Platform: "java", Date: "2023-01-01"},
		{ID: "2", Signatures: "CVE-2020-1", Description: "Linux kernel privilege escalation", Type: "local", Platform: "linux", Date: "2020-05-01"},
		{ID: "3", Signatures: "CVE-2021-2, CVE-2021-3", Description: "Remote Code Execution (RCE) on Linux", Type: "remote", Platform: "linux", Date: "2021-07-15"},
		{ID: "4", Signatures: "", Description: "Windows SMB denial of service", Type: "dos", Platform: "windows", Date: "2019-02-02"},
	})
}

func TestSearchEmptyQueryMatchesAll(t *testing.T) {
	c := sampleCatalog()
	got := c.Search("   ")
	assert.Equal(t, []string{"3", "2", "1", "4"}, ids(got))
}

func TestSearchAndOfTerms(t *testing.T) {
	c := sampleCatalog()

	assert.Equal(t, []string{"3"}, ids(c.Search("rce linux")))
	assert.Empty(t, c.Search("rce windows"))
	assert.Equal(t, []string{"3", "2"}, ids(c.Search("LINUX")))
}

func TestSearchMatchesInsideWordsAndAcrossFields(t *testing.T) {
	c := NewCatalog([]Record{
		{ID: "1", Signatures: "CVE-1", Description: "buffer overflow", Type: "local", Platform: "aix", Date: "2000-01-01"},
	})
	// "flow" sits inside "overflow"; "overflow local" spans the join
	assert.Len(t, c.Search("flow"), 1)
	assert.Len(t, c.Search("overflow local"), 1)
	assert.Len(t, c.Search("w l"), 1)
	assert.Empty(t, c.Search("overflowlocal"))
}

func TestSearchSignaturesOutrankDate(t *testing.T) {
	c := NewCatalog([]Record{
		{ID: "B", Signatures: "", Description: "x", Date: "2023-01-01"},
		{ID: "A", Signatures: "CVE-2020-1", Description: "x", Date: "2020-05-01"},
	})
	assert.Equal(t, []string{"A", "B"}, ids(c.Search("x")))
}

func TestSearchWhitespaceOnlySignaturesCountAsEmpty(t *testing.T) {
	c := NewCatalog([]Record{
		{ID: "blank", Signatures: "  ", Description: "x", Date: "2024-01-01"},
		{ID: "sig", Signatures: "CVE-1", Description: "x", Date: "2001-01-01"},
	})
	assert.Equal(t, []string{"sig", "blank"}, ids(c.Search("")))
}

func TestSearchStableAmongTies(t *testing.T) {
	c := NewCatalog([]Record{
		{ID: "first", Signatures: "CVE-1", Date: "2020-01-01"},
		{ID: "second", Signatures: "CVE-2", Date: "2020-01-01"},
		{ID: "third", Signatures: "CVE-3", Date: "2020-01-01"},
	})
	assert.Equal(t, []string{"first", "second", "third"}, ids(c.Search("")))
}

func TestSearchMalformedDatesRankLast(t *testing.T) {
	c := NewCatalog([]Record{
		{ID: "bad", Signatures: "CVE-1", Date: "n/a"},
		{ID: "empty", Signatures: "CVE-2", Date: ""},
		{ID: "old", Signatures: "CVE-3", Date: "1999-12-31"},
		{ID: "nosig", Signatures: "", Date: "2024-01-01"},
	})

	require.NotPanics(t, func() { c.Search("") })
	assert.Equal(t, []string{"old", "bad", "empty", "nosig"}, ids(c.Search("")))
}

func TestSearchIsPure(t *testing.T) {
	c := sampleCatalog()
	first := c.Search("linux")
	first[0].ID = "mutated"

	second := c.Search("linux")
	assert.Equal(t, []string{"3", "2"}, ids(second))
	assert.Equal(t, ids(c.Search("linux")), ids(second))
}

func TestGet(t *testing.T) {
	c := NewCatalog([]Record{
		{ID: "7", Description: "first"},
		{ID: "7", Description: "duplicate"},
	})

	r, err := c.Get("7")
	require.NoError(t, err)
	assert.Equal(t, "first", r.Description)

	_, err = c.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecordDerivedFields(t *testing.T) {
	r := Record{ID: "50383", Signatures: " CVE-2021-44228 ", Date: "2021-12-10"}

	assert.Equal(t, "https://www.exploit-db.com/exploits/50383", r.Link())
	assert.Equal(t, "50383", r.ExploitID())
	assert.True(t, r.HasSignatures())

	key, ok := r.DateKey()
	assert.True(t, ok)
	assert.Equal(t, int64(20211210), key)

	_, ok = Record{Date: "2021/12/10"}.DateKey()
	assert.False(t, ok)
	assert.Equal(t, "https://www.exploit-db.com/exploits/50383", NewView(r).Link)
}

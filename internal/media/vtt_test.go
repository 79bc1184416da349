package media

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseVTT(t *testing.T) {
	vtt := "WEBVTT\r\nKind: captions\r\nLanguage: en\r\n\r\n" +
		"1\r\n00:00:01.000 --> 00:00:04.000 align:start position:0%\r\n" +
		"Hello <c.colorE5E5E5>and</c> welcome\r\n\r\n" +
		"2\r\n00:00:04.000 --> 00:00:06.500\r\n" +
		"Hello and welcome\r\n" +
		"to the show &amp; more\r\n\r\n" +
		"00:01:05.250 --> 00:01:07.000\r\n" +
		"[Music]\r\n\r\n" +
		"01:02:03.000 --> 01:02:04.000\r\n" +
		"late   remark\r\n"

	got := ParseVTT(vtt)
	require.Equal(t,
		"[00:01] Hello and welcome\n"+
			"[00:04] to the show & more\n"+
			"[62:03] late remark",
		got)
}

func TestParseVTTShortTimestamps(t *testing.T) {
	got := ParseVTT("WEBVTT\n\n00:07.000 --> 00:09.000\nfirst line\n")
	require.Equal(t, "[00:07] first line", got)
}

func TestParseVTTEmpty(t *testing.T) {
	require.Equal(t, "", ParseVTT("WEBVTT\n\nNOTE nothing here\n"))
}

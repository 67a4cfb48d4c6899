package xfdf

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"io"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bikelog/internal/daylog"
	"bikelog/internal/markup"
)

func TestExport(t *testing.T) {
	jd := daylog.JulianDay(time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC))
	days := []*daylog.DayRecord{
		{
			JulianDay: jd,
			Events: []daylog.BikeEvent{
				{Distance: 8, Bike: "Road", Elevation: 500, Time: 1},
				{Distance: 12.35, Bike: "MTB", Elevation: 120, Time: 0.75},
			},
			Note0: "Ascend 500m, time 1:00 (1:01)\nTom & Jerry",
		},
	}

	var out bytes.Buffer
	err := NewExporter(nil).Export(context.Background(), markup.NewWriterSink(&out), days, Options{})
	require.NoError(t, err)

	want := `<?xml version="1.0" encoding="UTF-8"?>
<xfdf xmlns="http://ns.adobe.com/xfdf/" xml:space="preserve">
  <fields>
    <field name="2460379">
      <field name="0">
        <field name="bike"><value>Road</value></field>
        <field name="dist"><value>8</value></field>
        <field name="el"><value>500</value></field>
        <field name="t"><value>1</value></field>
      </field>
      <field name="1">
        <field name="bike"><value>MTB</value></field>
        <field name="dist"><value>12.35</value></field>
        <field name="el"><value>120</value></field>
        <field name="t"><value>0.75</value></field>
      </field>
      <field name="note0"><value>Ascend 500m, time 1:00 (1:01)
Tom &amp; Jerry</value></field>
      <field name="note1"><value></value></field>
    </field>
  </fields>
</xfdf>
`
	assert.Equal(t, want, out.String())
}

func TestExportKeepsEmptyDays(t *testing.T) {
	empty := &daylog.DayRecord{JulianDay: 2460000}

	var out bytes.Buffer
	require.NoError(t, NewExporter(nil).Export(context.Background(), markup.NewWriterSink(&out), []*daylog.DayRecord{empty}, Options{}))

	doc := out.String()
	assert.Contains(t, doc, `<field name="2460000">`)
	assert.Contains(t, doc, `<field name="note0"><value></value></field>`)
	assert.NotContains(t, doc, `<field name="0">`)
}

func TestExportFillsDateRange(t *testing.T) {
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	mid := daylog.JulianDay(time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC))

	days := []*daylog.DayRecord{{JulianDay: mid, Note0: "Hike: 3km Walk, moving time 0:40"}}

	var out bytes.Buffer
	require.NoError(t, NewExporter(nil).Export(context.Background(), markup.NewWriterSink(&out), days, Options{From: from, To: to}))

	doc := out.String()
	assert.Equal(t, 5, strings.Count(doc, `<field name="note0">`))
	assert.Equal(t, 1, strings.Count(doc, "Hike: 3km"))

	first := strings.Index(doc, `<field name="`+strconv.Itoa(daylog.JulianDay(from))+`">`)
	last := strings.Index(doc, `<field name="`+strconv.Itoa(daylog.JulianDay(to))+`">`)
	assert.True(t, first >= 0 && last > first)

	assertWellFormed(t, doc)
}

func TestExportStripsCharactersXMLForbids(t *testing.T) {
	days := []*daylog.DayRecord{{
		JulianDay: 2460379,
		Events:    []daylog.BikeEvent{{Distance: 1, Bike: "Road\x0b", Time: 0.1}},
		Note0:     "Ascend 0m\nLunch\x0bloop \xff",
	}}

	var out bytes.Buffer
	require.NoError(t, NewExporter(nil).Export(context.Background(), markup.NewWriterSink(&out), days, Options{}))

	doc := out.String()
	assertWellFormed(t, doc)
	assert.Contains(t, doc, `<field name="bike"><value>Road</value></field>`)
	assert.Contains(t, doc, "Lunchloop \uFFFD</value>")
}

func assertWellFormed(t *testing.T, doc string) {
	t.Helper()
	dec := xml.NewDecoder(strings.NewReader(doc))
	for {
		_, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return
		}
		require.NoError(t, err, "document is not well-formed XML")
	}
}

func TestDayGridOrder(t *testing.T) {
	days := []*daylog.DayRecord{{JulianDay: 30}, {JulianDay: 10}, {JulianDay: 20}}
	grid := dayGrid(days, Options{})
	require.Len(t, grid, 3)
	assert.Equal(t, 10, grid[0].JulianDay)
	assert.Equal(t, 20, grid[1].JulianDay)
	assert.Equal(t, 30, grid[2].JulianDay)
}

package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muurk/simplehome/internal/discovery"
	"github.com/muurk/simplehome/internal/ssdp"
)

// Device table column widths. LOCATION takes the remaining width.
const (
	colNameWidth = 24
	colAddrWidth = 16
	colUSNWidth  = 28
	colGap       = 2
)

// RenderDevices renders discovered devices as a table sorted by address.
// Devices without a fetched description show their SERVER header as name.
func RenderDevices(devices []*discovery.Device, width int) string {
	if len(devices) == 0 {
		return MutedStyle.Render("  No devices responded.")
	}
	width = max(width, MinTerminalWidth)

	sorted := make([]*discovery.Device, len(devices))
	copy(sorted, devices)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Addr < sorted[j].Addr
	})

	locWidth := max(width-colNameWidth-colAddrWidth-colUSNWidth-4*colGap, 12)
	widths := []int{colNameWidth, colAddrWidth, colUSNWidth, locWidth}

	rows := make([]string, 0, len(sorted)+2)
	rows = append(rows, renderRow(TableHeaderStyle, widths, "NAME", "ADDRESS", "USN", "LOCATION"))
	rows = append(rows, "  "+RenderHorizontalDivider(width-4, "─"))
	for _, d := range sorted {
		name := d.FriendlyName()
		if name == "" {
			name = d.Server
		}
		rows = append(rows, renderRow(TableCellStyle, widths, name, d.Addr, d.USN, d.Location))
	}
	rows = append(rows, "", MutedStyle.Render(fmt.Sprintf("  %d device(s) found", len(sorted))))
	return strings.Join(rows, "\n")
}

func renderRow(style lipgloss.Style, widths []int, cells ...string) string {
	var b strings.Builder
	b.WriteString("  ")
	for i, cell := range cells {
		text := truncate(cell, widths[i])
		b.WriteString(style.Render(text))
		if i < len(cells)-1 {
			b.WriteString(strings.Repeat(" ", widths[i]-lipgloss.Width(text)+colGap))
		}
	}
	return b.String()
}

// RenderDescription renders the fields of a device description document
func RenderDescription(desc *ssdp.Description) string {
	d := desc.Device
	fields := []Param{
		{Key: "Friendly name", Value: d.FriendlyName},
		{Key: "Device type", Value: d.DeviceType},
		{Key: "UDN", Value: d.UDN},
		{Key: "URL base", Value: desc.URLBase},
		{Key: "Manufacturer", Value: d.Manufacturer},
		{Key: "Manufacturer URL", Value: d.ManufacturerURL},
		{Key: "Model", Value: strings.TrimSpace(d.ModelName + " " + d.ModelNumber)},
		{Key: "Model URL", Value: d.ModelURL},
		{Key: "Serial number", Value: d.SerialNumber},
		{Key: "Presentation URL", Value: d.PresentationURL},
	}

	lines := make([]string, 0, len(fields))
	for _, f := range fields {
		if f.Value == "" {
			continue
		}
		lines = append(lines, "  "+KeyStyle.Render(f.Key)+ValueStyle.Render(f.Value))
	}
	return strings.Join(lines, "\n")
}

// RenderEvent renders one engine event as a single status line
func RenderEvent(ev ssdp.Event) string {
	marker := lipgloss.NewStyle().Foreground(PrimaryColor).Render(EventMarker)
	switch ev.Kind {
	case ssdp.EventStarted, ssdp.EventResponseSent:
		marker = lipgloss.NewStyle().Foreground(SuccessColor).Render(SuccessMarker)
	case ssdp.EventStopped:
		marker = lipgloss.NewStyle().Foreground(WarningColor).Render(EventMarker)
	}

	parts := []string{
		MutedStyle.Render(ev.Time.Format("15:04:05")),
		marker,
		ValueStyle.Render(string(ev.Kind)),
	}
	if ev.Remote != "" {
		parts = append(parts, MutedStyle.Render("from/to"), ValueStyle.Render(ev.Remote))
	}
	if ev.Target != "" {
		parts = append(parts, MutedStyle.Render(ev.Target))
	}
	if ev.DelayMS > 0 {
		parts = append(parts, MutedStyle.Render(fmt.Sprintf("(in %dms)", ev.DelayMS)))
	}
	return "  " + strings.Join(parts, " ")
}

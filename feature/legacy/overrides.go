package legacy

import (
	"fmt"
	"strconv"
	"strings"

	"legacy-mirror/core/mapper"
	"legacy-mirror/core/utils"
)

// projectStatuses maps the legacy numeric status codes to their labels.
var projectStatuses = map[int64]string{
	0: "draft",
	1: "active",
	2: "on_hold",
	3: "completed",
	4: "canceled",
}

// Overrides returns the per-table mapping functions the generic rules cannot express.
func Overrides() map[string]mapper.Override {
	return map[string]mapper.Override{
		"projects":  projectStatus,
		"estimates": estimateQuotation,
		"employees": employeeName,
	}
}

// projectStatus replaces the legacy status_code with a status label.
func projectStatus(src mapper.SourceRecord, dst mapper.TargetRecord) error {
	raw, ok := src["status_code"]
	if !ok {
		return nil
	}
	delete(dst, "status_code")

	raw = utils.Unwrap(raw)
	if raw == nil {
		dst["status"] = nil
		return nil
	}
	code, ok := utils.ToInt64(raw)
	if !ok {
		return fmt.Errorf("status_code: %v is not numeric", raw)
	}
	label, ok := projectStatuses[code]
	if !ok {
		return fmt.Errorf("status_code: unknown status %d", code)
	}
	dst["status"] = label
	return nil
}

// estimateQuotation stores the quotation as a plain number. The legacy column
// is a string with decimal comma and thousands separators.
func estimateQuotation(src mapper.SourceRecord, dst mapper.TargetRecord) error {
	raw, ok := src["quotation"]
	if !ok {
		return nil
	}
	raw = utils.Unwrap(raw)
	if raw == nil {
		dst["quotation"] = nil
		return nil
	}
	if f, ok := raw.(float64); ok {
		dst["quotation"] = f
		return nil
	}
	if i, ok := utils.ToInt64(raw); ok {
		dst["quotation"] = float64(i)
		return nil
	}

	s := strings.TrimSpace(utils.ToString(raw))
	if s == "" {
		dst["quotation"] = nil
		return nil
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("quotation: %q is not a number", raw)
	}
	dst["quotation"] = f
	return nil
}

// employeeName fills full_name from the split legacy name columns.
func employeeName(src mapper.SourceRecord, dst mapper.TargetRecord) error {
	first := strings.TrimSpace(nameOf(src["first_name"]))
	last := strings.TrimSpace(nameOf(src["last_name"]))
	if first == "" && last == "" {
		return nil
	}
	dst["full_name"] = strings.TrimSpace(first + " " + last)
	return nil
}

func nameOf(val any) string {
	val = utils.Unwrap(val)
	if val == nil {
		return ""
	}
	return utils.ToString(val)
}

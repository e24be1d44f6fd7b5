package constants

// Field labels as printed on the voter roll. Matching is done on digit-normalized text,
// so none of these contain Bangla digits.
const (
	LabelName        = "নাম"
	LabelVoterNumber = "ভোটার নং"
	LabelFather      = "পিতা"
	LabelMother      = "মাতা"
	LabelOccupation  = "পেশা"
	LabelDateOfBirth = "জন্ম তারিখ"
	LabelAddress     = "ঠিকানা"

	// MigrationMarker flags an entry that moved to another roll; such blocks are dropped.
	MigrationMarker = "মাইগ্রেট"
)

// Column is one output column of the exported sheet.
type Column string

const (
	ColumnSerial      Column = "Serial"
	ColumnName        Column = LabelName
	ColumnVoterNumber Column = LabelVoterNumber
	ColumnFather      Column = LabelFather
	ColumnMother      Column = LabelMother
	ColumnOccupation  Column = LabelOccupation
	ColumnDateOfBirth Column = LabelDateOfBirth
	ColumnAddress     Column = LabelAddress
)

// allColumns is the fixed export order.
var allColumns = []Column{
	ColumnSerial,
	ColumnName,
	ColumnVoterNumber,
	ColumnFather,
	ColumnMother,
	ColumnOccupation,
	ColumnDateOfBirth,
	ColumnAddress,
}

func Columns() []Column {
	out := make([]Column, len(allColumns))
	copy(out, allColumns)
	return out
}

func AsStringSlice() []string {
	result := make([]string, len(allColumns))
	for i, c := range allColumns {
		result[i] = string(c)
	}
	return result
}

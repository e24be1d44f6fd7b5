package entity

import "github.com/joseph-ayodele/voter-roll-extractor/constants"

// Record is one voter entry. Text fields default to "" when the roll omits them.
type Record struct {
	Serial      int    `json:"serial"`
	Name        string `json:"name"`
	VoterNumber string `json:"voter_number"`
	FatherName  string `json:"father_name"`
	MotherName  string `json:"mother_name"`
	Occupation  string `json:"occupation"`
	DateOfBirth string `json:"date_of_birth"`
	Address     string `json:"address"`
}

// Value returns the record's value for an export column.
func (r Record) Value(c constants.Column) any {
	switch c {
	case constants.ColumnSerial:
		return r.Serial
	case constants.ColumnName:
		return r.Name
	case constants.ColumnVoterNumber:
		return r.VoterNumber
	case constants.ColumnFather:
		return r.FatherName
	case constants.ColumnMother:
		return r.MotherName
	case constants.ColumnOccupation:
		return r.Occupation
	case constants.ColumnDateOfBirth:
		return r.DateOfBirth
	case constants.ColumnAddress:
		return r.Address
	default:
		return ""
	}
}

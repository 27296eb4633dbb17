package sqlcgen

import "time"

type MapViewConfiguration struct {
	Name                     string
	ParentDoctype            string
	ChildDoctype             string
	SearchType               string
	ParentReferenceField     string
	ParentReferenceTypeField *string
	ParentDoctypeDynamic     *string
	ChildLatitudeField       string
	ChildLongitudeField      string
	ColorCodingField         *string
	UpdatedAt                time.Time
}

type MapViewColorCoding struct {
	Configuration string
	Idx           int32
	Value         string
	Color         string
}

type MapViewDisplayField struct {
	Configuration string
	Idx           int32
	FieldName     string
	FieldLabel    *string
	Source        string
}

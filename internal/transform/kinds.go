package transform

import (
	"strings"
)

// Kind discriminates the entity kinds of the replica
type Kind string

const (
	KindOrganization    Kind = "ORGANIZATION"
	KindPerson          Kind = "PERSON"
	KindMeeting         Kind = "MEETING"
	KindPaper           Kind = "PAPER"
	KindConsultation    Kind = "CONSULTATION"
	KindFile            Kind = "FILE"
	KindAgendaItem      Kind = "AGENDA_ITEM"
	KindMembership      Kind = "MEMBERSHIP"
	KindLocation        Kind = "LOCATION"
	KindLegislativeTerm Kind = "LEGISLATIVE_TERM"
)

// Kinds lists every kind in a stable order
var Kinds = []Kind{
	KindOrganization, KindPerson, KindMeeting, KindPaper, KindConsultation,
	KindFile, KindAgendaItem, KindMembership, KindLocation, KindLegislativeTerm,
}

var typeNames = map[string]Kind{
	"Organization":    KindOrganization,
	"Person":          KindPerson,
	"Meeting":         KindMeeting,
	"Paper":           KindPaper,
	"Consultation":    KindConsultation,
	"File":            KindFile,
	"AgendaItem":      KindAgendaItem,
	"Membership":      KindMembership,
	"Location":        KindLocation,
	"LegislativeTerm": KindLegislativeTerm,
}

// KindFromType maps an OParl type URL such as
// https://schema.oparl.org/1.1/Paper to its kind
func KindFromType(typeURL string) (Kind, bool) {
	name := typeURL
	if i := strings.LastIndex(typeURL, "/"); i >= 0 {
		name = typeURL[i+1:]
	}
	k, ok := typeNames[name]
	return k, ok
}

// Valid reports whether k is a known kind
func (k Kind) Valid() bool {
	_, ok := fieldTables[k]
	return ok
}

// String implements fmt.Stringer
func (k Kind) String() string {
	return string(k)
}

type fieldClass int

const (
	classString fieldClass = iota
	classTime
	classDate
	classBool
	classInt
	classStringList
	classObject
	classRef
	classRefList
	classEmbedded
	classEmbeddedList
)

type fieldSpec struct {
	class fieldClass
	// child is the kind of embedded objects
	child Kind
}

func str() fieldSpec { return fieldSpec{class: classString} }
func ts() fieldSpec { return fieldSpec{class: classTime} }
func date() fieldSpec { return fieldSpec{class: classDate} }
func boolean() fieldSpec { return fieldSpec{class: classBool} }
func integer() fieldSpec { return fieldSpec{class: classInt} }
func strList() fieldSpec { return fieldSpec{class: classStringList} }
func object() fieldSpec { return fieldSpec{class: classObject} }
func ref() fieldSpec { return fieldSpec{class: classRef} }
func refList() fieldSpec { return fieldSpec{class: classRefList} }
func embedded(k Kind) fieldSpec { return fieldSpec{class: classEmbedded, child: k} }
func embeddedList(k Kind) fieldSpec { return fieldSpec{class: classEmbeddedList, child: k} }

// metaFields are read separately and never part of the payload
var metaFields = map[string]bool{
	"id":       true,
	"type":     true,
	"created":  true,
	"modified": true,
	"deleted":  true,
}

// commonFields exist on every OParl object
var commonFields = map[string]fieldSpec{
	"license": str(),
	"keyword": strList(),
	"web":     str(),
}

// fieldTables holds the known fields of every kind, following OParl 1.1
var fieldTables = map[Kind]map[string]fieldSpec{
	KindOrganization: {
		"body":              ref(),
		"name":              str(),
		"shortName":         str(),
		"membership":        refList(),
		"meeting":           str(),
		"consultation":      str(),
		"post":              strList(),
		"subOrganizationOf": ref(),
		"organizationType":  str(),
		"classification":    str(),
		"startDate":         date(),
		"endDate":           date(),
		"website":           str(),
		"location":          embedded(KindLocation),
		"externalBody":      ref(),
	},
	KindPerson: {
		"body":           ref(),
		"name":           str(),
		"familyName":     str(),
		"givenName":      str(),
		"formOfAddress":  str(),
		"affix":          str(),
		"title":          strList(),
		"gender":         str(),
		"phone":          strList(),
		"email":          strList(),
		"location":       ref(),
		"locationObject": embedded(KindLocation),
		"status":         strList(),
		"membership":     embeddedList(KindMembership),
		"life":           str(),
		"lifeSource":     str(),
	},
	KindMembership: {
		"person":       ref(),
		"organization": ref(),
		"role":         str(),
		"votingRight":  boolean(),
		"startDate":    date(),
		"endDate":      date(),
		"onBehalfOf":   ref(),
	},
	KindMeeting: {
		"name":             str(),
		"meetingState":     str(),
		"cancelled":        boolean(),
		"start":            ts(),
		"end":              ts(),
		"location":         embedded(KindLocation),
		"organization":     refList(),
		"participant":      refList(),
		"invitation":       embedded(KindFile),
		"resultsProtocol":  embedded(KindFile),
		"verbatimProtocol": embedded(KindFile),
		"auxiliaryFile":    embeddedList(KindFile),
		"agendaItem":       embeddedList(KindAgendaItem),
	},
	KindAgendaItem: {
		"meeting":        ref(),
		"number":         str(),
		"order":          integer(),
		"name":           str(),
		"public":         boolean(),
		"consultation":   ref(),
		"result":         str(),
		"resolutionText": str(),
		"resolutionFile": embedded(KindFile),
		"auxiliaryFile":  embeddedList(KindFile),
		"start":          ts(),
		"end":            ts(),
	},
	KindPaper: {
		"body":                   ref(),
		"name":                   str(),
		"reference":              str(),
		"date":                   date(),
		"paperType":              str(),
		"relatedPaper":           refList(),
		"superordinatedPaper":    refList(),
		"subordinatedPaper":      refList(),
		"mainFile":               embedded(KindFile),
		"auxiliaryFile":          embeddedList(KindFile),
		"location":               embeddedList(KindLocation),
		"originatorPerson":       refList(),
		"underDirectionOf":       refList(),
		"originatorOrganization": refList(),
		"consultation":           embeddedList(KindConsultation),
	},
	KindConsultation: {
		"paper":         ref(),
		"agendaItem":    ref(),
		"meeting":       ref(),
		"organization":  refList(),
		"authoritative": boolean(),
		"role":          str(),
	},
	KindFile: {
		"name":               str(),
		"fileName":           str(),
		"mimeType":           str(),
		"date":               date(),
		"size":               integer(),
		"sha1Checksum":       str(),
		"sha512Checksum":     str(),
		"text":               str(),
		"accessUrl":          str(),
		"downloadUrl":        str(),
		"externalServiceUrl": str(),
		"masterFile":         ref(),
		"derivativeFile":     refList(),
		"fileLicense":        str(),
		"meeting":            refList(),
		"agendaItem":         refList(),
		"paper":              refList(),
	},
	KindLocation: {
		"description":   str(),
		"geojson":       object(),
		"streetAddress": str(),
		"room":          str(),
		"postalCode":    str(),
		"subLocality":   str(),
		"locality":      str(),
		"bodies":        refList(),
		"organizations": refList(),
		"persons":       refList(),
		"meetings":      refList(),
		"papers":        refList(),
	},
	KindLegislativeTerm: {
		"body":      ref(),
		"name":      str(),
		"startDate": date(),
		"endDate":   date(),
	},
}

func lookupField(k Kind, name string) (fieldSpec, bool) {
	if spec, ok := fieldTables[k][name]; ok {
		return spec, true
	}
	spec, ok := commonFields[name]
	return spec, ok
}

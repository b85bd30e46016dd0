package model

// Source columns of a facility row.
const (
	ColName                    = "name"
	ColSpecialties             = "specialties"
	ColProcedure               = "procedure"
	ColEquipment               = "equipment"
	ColCapability              = "capability"
	ColBedsTotal               = "bedsTotal"
	ColCapacity                = "capacity"
	ColDoctorsCount            = "doctorsCount"
	ColNumberDoctors           = "numberDoctors"
	ColAddressLine1            = "address_line1"
	ColAddressCity             = "address_city"
	ColAddressRegion           = "address_stateOrRegion"
	ColAddressCountry          = "address_country"
	ColFacilityType            = "facilityTypeId"
	ColOperatorType            = "operatorTypeId"
	ColDescription             = "description"
	ColOrganizationDescription = "organizationDescription"
)

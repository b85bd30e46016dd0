package reference

import "github.com/ppiankov/carescope/internal/model"

// Default returns the built-in tables, ready to use.
func Default() *Tables {
	t := defaultTables()
	t.build()
	return t
}

func defaultTables() *Tables {
	return &Tables{
		Specialties: []SpecialtyEntry{
			{
				Key:       "neurosurgery",
				Aliases:   []string{"neurological surgery", "brain surgery"},
				Equipment: []string{"operating microscope", "CT scan", "MRI", "ICU", "ventilator"},
			},
			{
				Key:        "cardiology",
				Aliases:    []string{"cardiac care"},
				Equipment:  []string{"ECG", "echocardiograph", "defibrillator", "cardiac monitor"},
				Capability: []string{"cardiac clinic", "heart clinic"},
			},
			{
				Key:        "cardiacSurgery",
				Aliases:    []string{"cardiothoracic surgery", "heart surgery"},
				Equipment:  []string{"heart-lung machine", "operating theatre", "ICU", "ventilator", "blood bank"},
				Capability: []string{"open heart surgery"},
			},
			{
				Key:        "ophthalmology",
				Aliases:    []string{"eye care"},
				Equipment:  []string{"slit lamp", "operating microscope", "tonometer", "fundoscope"},
				Capability: []string{"eye clinic", "cataract surgery"},
			},
			{
				Key:       "radiology",
				Aliases:   []string{"diagnostic imaging"},
				Equipment: []string{"X-ray", "ultrasound", "CT scan"},
			},
			{
				Key:       "orthopedicSurgery",
				Aliases:   []string{"orthopaedics", "orthopedics", "orthopaedic surgery"},
				Equipment: []string{"X-ray", "operating theatre", "C-arm"},
			},
			{
				Key:        "nephrology",
				Aliases:    []string{"renal medicine"},
				Equipment:  []string{"dialysis machine", "ultrasound"},
				Capability: []string{"renal unit", "kidney care"},
			},
			{
				Key:        "generalSurgery",
				Aliases:    []string{"surgery"},
				Equipment:  []string{"operating theatre", "anaesthesia machine", "autoclave", "blood bank"},
				Capability: []string{"surgical ward"},
			},
			{
				Key:        "gynecologyAndObstetrics",
				Aliases:    []string{"obstetrics and gynecology", "obstetrics", "gynaecology", "maternity"},
				Equipment:  []string{"ultrasound", "fetal monitor", "operating theatre"},
				Capability: []string{"delivery suite", "labour ward", "caesarean section"},
			},
			{
				Key:        "pediatrics",
				Aliases:    []string{"paediatrics", "child health"},
				Equipment:  []string{"incubator"},
				Capability: []string{"neonatal unit", "pediatric ward", "children's ward"},
			},
			{
				Key:        "emergencyMedicine",
				Aliases:    []string{"emergency", "accident and emergency"},
				Equipment:  []string{"defibrillator", "ventilator", "trauma kit"},
				Capability: []string{"emergency department", "emergency unit", "casualty"},
			},
			{
				Key:       "dentistry",
				Aliases:   []string{"dental care", "dental"},
				Equipment: []string{"dental chair", "dental X-ray", "autoclave"},
			},
			{
				Key:        "psychiatry",
				Aliases:    []string{"mental health"},
				Capability: []string{"counselling", "inpatient ward", "psychiatric ward"},
			},
		},

		Equipment: []LexiconEntry{
			{Canonical: "CT scan", Triggers: []string{"ct scan", "ct scanner", "computed tomography", "cat scan"}},
			{Canonical: "MRI", Triggers: []string{"mri", "magnetic resonance"}},
			{Canonical: "X-ray", Triggers: []string{"x-ray", "xray", "x ray", "radiograph", "radiography"}},
			{Canonical: "dental X-ray", Triggers: []string{"dental x-ray", "panoramic x-ray", "opg"}},
			{Canonical: "ultrasound", Triggers: []string{"ultrasound", "ultrasonography", "sonography"}},
			{Canonical: "operating microscope", Triggers: []string{"operating microscope", "surgical microscope"}},
			{Canonical: "ventilator", Triggers: []string{"ventilator", "ventilators", "mechanical ventilation"}},
			{Canonical: "ICU", Triggers: []string{"icu", "intensive care"}},
			{Canonical: "dialysis machine", Triggers: []string{"dialysis machine", "haemodialysis", "hemodialysis"}},
			{Canonical: "ECG", Triggers: []string{"ecg", "ekg", "electrocardiogram", "electrocardiography"}},
			{Canonical: "echocardiograph", Triggers: []string{"echocardiograph", "echocardiography", "echocardiogram"}},
			{Canonical: "defibrillator", Triggers: []string{"defibrillator", "aed"}},
			{Canonical: "cardiac monitor", Triggers: []string{"cardiac monitor", "patient monitor"}},
			{Canonical: "heart-lung machine", Triggers: []string{"heart-lung machine", "cardiopulmonary bypass"}},
			{Canonical: "operating theatre", Triggers: []string{"operating theatre", "operating theater", "operating room", "theatre"}},
			{Canonical: "anaesthesia machine", Triggers: []string{"anaesthesia machine", "anesthesia machine"}},
			{Canonical: "autoclave", Triggers: []string{"autoclave", "sterilizer", "steriliser"}},
			{Canonical: "blood bank", Triggers: []string{"blood bank", "blood transfusion"}},
			{Canonical: "slit lamp", Triggers: []string{"slit lamp", "slit-lamp"}},
			{Canonical: "tonometer", Triggers: []string{"tonometer", "tonometry"}},
			{Canonical: "fundoscope", Triggers: []string{"fundoscope", "ophthalmoscope"}},
			{Canonical: "C-arm", Triggers: []string{"c-arm", "fluoroscopy"}},
			{Canonical: "fetal monitor", Triggers: []string{"fetal monitor", "cardiotocograph", "ctg"}},
			{Canonical: "incubator", Triggers: []string{"incubator", "incubators"}},
			{Canonical: "dental chair", Triggers: []string{"dental chair", "dental unit"}},
			{Canonical: "trauma kit", Triggers: []string{"trauma kit"}},
			{Canonical: "laboratory", Triggers: []string{"laboratory", "lab services"}},
			{Canonical: "endoscope", Triggers: []string{"endoscope", "endoscopy"}},
			{Canonical: "mammography", Triggers: []string{"mammography", "mammogram"}},
			{Canonical: "oxygen concentrator", Triggers: []string{"oxygen concentrator", "oxygen plant"}},
			{Canonical: "ambulance", Triggers: []string{"ambulance"}},
		},

		Vocabulary: []string{
			"internalMedicine", "familyMedicine", "generalPractice", "dermatology",
			"oncology", "neonatology", "neurology", "urology", "otolaryngology",
			"physiotherapy", "plasticSurgery", "hepatobiliarySurgery", "spineNeurosurgery",
			"transplantSurgery", "interventionalRadiology", "anesthesiology", "pathology",
			"infectiousDiseases", "endocrinology", "gastroenterology", "pulmonology",
		},

		CapabilityClaims: []CapabilityClaim{
			{
				Claim:    "emergency care",
				Triggers: []string{"emergency", "accident and emergency", "trauma care"},
				Evidence: []string{"defibrillator", "ventilator", "trauma kit", "ambulance", "resuscitation", "oxygen concentrator"},
			},
			{
				Claim:    "intensive care",
				Triggers: []string{"intensive care", "icu", "critical care"},
				Evidence: []string{"ventilator", "cardiac monitor", "oxygen concentrator", "defibrillator"},
			},
			{
				Claim:    "surgery",
				Triggers: []string{"surgery", "surgical", "surgeries", "operations"},
				Evidence: []string{"operating theatre", "anaesthesia machine", "autoclave", "appendectomy", "herniorrhaphy", "hernia repair", "laparotomy", "caesarean section", "cesarean section"},
			},
			{
				Claim:    "diagnostic imaging",
				Triggers: []string{"imaging", "radiology", "scans"},
				Evidence: []string{"X-ray", "ultrasound", "CT scan", "MRI", "C-arm", "mammography"},
			},
			{
				Claim:    "dialysis",
				Triggers: []string{"dialysis", "renal replacement"},
				Evidence: []string{"dialysis machine"},
			},
			{
				Claim:    "laboratory services",
				Triggers: []string{"laboratory", "lab", "diagnostics"},
				Evidence: []string{"laboratory", "microscope", "analyzer", "analyser", "centrifuge", "blood test", "blood tests"},
			},
			{
				Claim:    "maternity care",
				Triggers: []string{"maternity", "delivery", "deliveries", "antenatal"},
				Evidence: []string{"fetal monitor", "ultrasound", "incubator", "caesarean section", "cesarean section", "delivery"},
			},
		},

		Complex: []string{
			"neurosurgery", "cardiacSurgery", "plasticSurgery", "hepatobiliarySurgery",
			"spineNeurosurgery", "transplantSurgery", "interventionalRadiology",
		},

		NGOOperators: []string{"ngo", "charity", "mission", "faith-based", "faithBased", "religious", "nonprofit", "non-profit"},

		Keywords: Keywords{
			Itinerant:     []string{"visiting", "camp", "camps", "outreach", "mission", "periodic", "twice a year", "annual", "quarterly"},
			Permanent:     []string{"24/7", "24 hours", "permanent", "full-time", "daily"},
			Referral:      []string{"refer", "refers", "referral", "referred", "arrange", "collaborate", "send to", "partner", "transfer"},
			Visiting:      []string{"visiting", "consultant", "consultants", "locum", "part-time"},
			NGO:           []string{"ngo", "foundation", "charity", "mission", "non-profit", "nonprofit", "volunteer", "volunteers", "international", "aid"},
			Faith:         []string{"faith-based", "church", "catholic", "methodist", "presbyterian", "baptist", "adventist", "islamic", "ahmadiyya", "christian"},
			Funding:       []string{"funded", "funding", "grant", "grants", "donor", "donors", "donation", "donations", "sponsored", "sponsor", "partnership", "partnerships", "partnered"},
			RoundTheClock: []string{"24/7", "24 hours", "24-hour", "24hr", "24 hr", "round the clock", "round-the-clock"},
			Emergency:     []string{"emergency", "accident and emergency", "casualty", "trauma"},
		},

		Tiers: []Tier{
			{Min: 10, Name: "urgent", Recommendation: "urgent mobile clinic deployment", Severity: model.SeverityAlert},
			{Min: 6, Name: "planned", Recommendation: "planned outreach program", Severity: model.SeverityWarning},
			{Min: 1, Name: "monitor", Recommendation: "monitor and re-assess", Severity: model.SeverityInfo},
		},

		Thresholds: Thresholds{
			SpecialtyBreadth:         15,
			SmallFacilityBeds:        50,
			SmallFacilitySpecialties: 10,
			LargeFacilityBeds:        100,
			WellServedRegion:         20,
			ModerateRegion:           5,
			LimitedRegion:            5,
			MobileClinicKm:           80,
			SpecialtyListLimit:       10,
		},
	}
}

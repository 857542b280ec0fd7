package entity

import "fmt"

type ReporterRole uint8

const (
	RoleValidator ReporterRole = iota
	RoleTracer
	RolePublisher
	RoleAuthority
)

var reporterRoleNames = map[ReporterRole]string{
	RoleValidator: "validator",
	RoleTracer:    "tracer",
	RolePublisher: "publisher",
	RoleAuthority: "authority",
}

func ParseReporterRole(v uint8) (ReporterRole, error) {
	role := ReporterRole(v)
	if _, ok := reporterRoleNames[role]; !ok {
		return 0, fmt.Errorf("invalid reporter role %d", v)
	}
	return role, nil
}

func (r ReporterRole) String() string {
	if name, ok := reporterRoleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", uint8(r))
}

func (r ReporterRole) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

type ReporterStatus uint8

const (
	ReporterInactive ReporterStatus = iota
	ReporterActive
	ReporterUnstaking
)

var reporterStatusNames = map[ReporterStatus]string{
	ReporterInactive:  "inactive",
	ReporterActive:    "active",
	ReporterUnstaking: "unstaking",
}

func ParseReporterStatus(v uint8) (ReporterStatus, error) {
	status := ReporterStatus(v)
	if _, ok := reporterStatusNames[status]; !ok {
		return 0, fmt.Errorf("invalid reporter status %d", v)
	}
	return status, nil
}

func (s ReporterStatus) String() string {
	if name, ok := reporterStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", uint8(s))
}

func (s ReporterStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type CaseStatus uint8

const (
	CaseClosed CaseStatus = iota
	CaseOpen
)

func ParseCaseStatus(v uint8) (CaseStatus, error) {
	if v > uint8(CaseOpen) {
		return 0, fmt.Errorf("invalid case status %d", v)
	}
	return CaseStatus(v), nil
}

func (s CaseStatus) String() string {
	if s == CaseOpen {
		return "open"
	}
	return "closed"
}

func (s CaseStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Category is the protocol-defined classification of a reported address or
// asset.
type Category uint8

const (
	CategoryNone Category = iota
	CategoryWalletService
	CategoryMerchantService
	CategoryMiningPool
	CategoryExchange
	CategoryDeFi
	CategoryOTCBroker
	CategoryATM
	CategoryGambling
	CategoryIllicitOrganization
	CategoryMixer
	CategoryDarknetService
	CategoryScam
	CategoryRansomware
	CategoryTheft
	CategoryCounterfeit
	CategoryTerroristFinancing
	CategorySanctions
	CategoryChildAbuse
)

var categoryNames = map[Category]string{
	CategoryNone:                "none",
	CategoryWalletService:       "wallet_service",
	CategoryMerchantService:     "merchant_service",
	CategoryMiningPool:          "mining_pool",
	CategoryExchange:            "exchange",
	CategoryDeFi:                "defi",
	CategoryOTCBroker:           "otc_broker",
	CategoryATM:                 "atm",
	CategoryGambling:            "gambling",
	CategoryIllicitOrganization: "illicit_organization",
	CategoryMixer:               "mixer",
	CategoryDarknetService:      "darknet_service",
	CategoryScam:                "scam",
	CategoryRansomware:          "ransomware",
	CategoryTheft:               "theft",
	CategoryCounterfeit:         "counterfeit",
	CategoryTerroristFinancing:  "terrorist_financing",
	CategorySanctions:           "sanctions",
	CategoryChildAbuse:          "child_abuse",
}

func ParseCategory(v uint8) (Category, error) {
	category := Category(v)
	if _, ok := categoryNames[category]; !ok {
		return 0, fmt.Errorf("invalid category %d", v)
	}
	return category, nil
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", uint8(c))
}

func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

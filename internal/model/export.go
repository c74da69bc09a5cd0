package model

import "time"

// ContractExport is the data handed to the file generators for the contract
// list export.
type ContractExport struct {
	OrganizationName string
	OperationMode    OperationMode
	GeneratedAt      time.Time
	FullRouteNames   bool
	Contracts        []Contract
}

// RouteName renders a contract's route for display, honoring the full-name
// setting.
func (e ContractExport) RouteName(contract Contract) string {
	if contract.StartLocation == nil || contract.EndLocation == nil {
		return ""
	}
	if e.FullRouteNames {
		return contract.StartLocation.Name + " -> " + contract.EndLocation.Name
	}
	return contract.StartLocation.SolarSystemName() + " -> " + contract.EndLocation.SolarSystemName()
}

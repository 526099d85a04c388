package seeders

// equipmentTypesData - базовые типы оборудования и маски их серийных номеров.
var equipmentTypesData = []struct {
	Name string
	Mask string
}{
	{Name: "TP-Link TL-WR74", Mask: "XXAAAAAXAA"},
	{Name: "D-Link DIR-300", Mask: "NXXAAXZXaa"},
	{Name: "D-Link DIR-300 S", Mask: "NXXAAXZXXX"},
	{Name: "Банкомат", Mask: "NNNNNNNN"},
	{Name: "Пос-терминал", Mask: "AANNNNNN"},
}

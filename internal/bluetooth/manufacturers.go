package bluetooth

import "fmt"

// LookupManufacturer returns a human-readable name for a Bluetooth SIG company ID.
// See: https://www.bluetooth.com/specifications/assigned-numbers/
func LookupManufacturer(companyID uint16) string {
	if name, ok := companyNames[companyID]; ok {
		return name
	}
	return ""
}

// ManufacturerLabel is LookupManufacturer with a hex fallback for
// unknown IDs.
func ManufacturerLabel(companyID uint16) string {
	if name := LookupManufacturer(companyID); name != "" {
		return name
	}
	return fmt.Sprintf("0x%04X", companyID)
}

// Serial bridge vendors first (HM-10/CC2541, nRF, ESP32 based rovers),
// then the usual neighbours in a scan.
var companyNames = map[uint16]string{
	0x000D: "Texas Inst.",
	0x0059: "Nordic",
	0x015D: "Espressif",
	0x000A: "Qualcomm",
	0x000F: "Broadcom",
	0x0002: "Intel",
	0x00AA: "Realtek",
	0x004C: "Apple",
	0x0006: "Microsoft",
	0x00E0: "Google",
	0x0075: "Samsung",
	0x0310: "Xiaomi",
	0x0157: "Huawei",
	0x038F: "Garmin",
	0x0087: "Bose",
	0x012D: "Sony",
	0x0171: "Amazon",
	0x02FF: "Tile",
	0x0131: "JBL",
	0x03DA: "Fitbit",
	0x0246: "Logitech",
	0x02A9: "Anker",
}

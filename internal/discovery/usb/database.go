// 📁 internal/discovery/usb/database.go - USB Serial Bridge Database
package usb

import (
	"strings"
)

// BridgeDatabase contains USB serial bridges controller boards ship with
type BridgeDatabase struct {
	vendors map[string]*VendorInfo
}

// VendorInfo contains vendor-specific information
type VendorInfo struct {
	Name     string
	products map[string]*ProductInfo
}

// ProductInfo contains product-specific information
type ProductInfo struct {
	Model string
	Board bool
}

// NewBridgeDatabase creates and initializes the bridge database
func NewBridgeDatabase() *BridgeDatabase {
	db := &BridgeDatabase{
		vendors: make(map[string]*VendorInfo),
	}
	db.initializeDatabase()
	return db
}

// initializeDatabase populates the known bridges
func (db *BridgeDatabase) initializeDatabase() {
	db.AddVendor("2341", &VendorInfo{Name: "Arduino SA"})
	db.AddProduct("2341", "0043", &ProductInfo{Model: "Arduino Uno", Board: true})
	db.AddProduct("2341", "0001", &ProductInfo{Model: "Arduino Uno", Board: true})
	db.AddProduct("2341", "0010", &ProductInfo{Model: "Arduino Mega 2560", Board: true})
	db.AddProduct("2341", "0042", &ProductInfo{Model: "Arduino Mega 2560", Board: true})
	db.AddProduct("2341", "8036", &ProductInfo{Model: "Arduino Leonardo", Board: true})
	db.AddProduct("2341", "8037", &ProductInfo{Model: "Arduino Micro", Board: true})

	db.AddVendor("2a03", &VendorInfo{Name: "Arduino SRL"})
	db.AddProduct("2a03", "0043", &ProductInfo{Model: "Arduino Uno", Board: true})

	db.AddVendor("1a86", &VendorInfo{Name: "QinHeng Electronics"})
	db.AddProduct("1a86", "7523", &ProductInfo{Model: "CH340 serial adapter"})
	db.AddProduct("1a86", "55d4", &ProductInfo{Model: "CH9102 serial adapter"})

	db.AddVendor("0403", &VendorInfo{Name: "FTDI"})
	db.AddProduct("0403", "6001", &ProductInfo{Model: "FT232R serial adapter"})
	db.AddProduct("0403", "6015", &ProductInfo{Model: "FT231X serial adapter"})

	db.AddVendor("10c4", &VendorInfo{Name: "Silicon Labs"})
	db.AddProduct("10c4", "ea60", &ProductInfo{Model: "CP210x serial adapter"})

	db.AddVendor("067b", &VendorInfo{Name: "Prolific Technology"})
	db.AddProduct("067b", "2303", &ProductInfo{Model: "PL2303 serial adapter"})
}

// IsKnownVendor checks if vendor is a known bridge vendor
func (db *BridgeDatabase) IsKnownVendor(vendorID string) bool {
	_, exists := db.vendors[normalizeID(vendorID)]
	return exists
}

// GetVendorInfo returns vendor information
func (db *BridgeDatabase) GetVendorInfo(vendorID string) *VendorInfo {
	return db.vendors[normalizeID(vendorID)]
}

// GetProductInfo returns product information
func (vi *VendorInfo) GetProductInfo(productID string) *ProductInfo {
	return vi.products[normalizeID(productID)]
}

// Describe returns a readable name for a VID/PID pair and whether it is a
// controller board rather than a generic adapter
func (db *BridgeDatabase) Describe(vendorID, productID string) (string, bool) {
	vendor := db.GetVendorInfo(vendorID)
	if vendor == nil {
		return "", false
	}
	if product := vendor.GetProductInfo(productID); product != nil {
		return product.Model, product.Board
	}
	return vendor.Name + " device", false
}

// GetTotalProductCount returns total number of known products
func (db *BridgeDatabase) GetTotalProductCount() int {
	count := 0
	for _, vendor := range db.vendors {
		count += len(vendor.products)
	}
	return count
}

// AddVendor adds a new vendor to the database
func (db *BridgeDatabase) AddVendor(vendorID string, info *VendorInfo) {
	if info.products == nil {
		info.products = make(map[string]*ProductInfo)
	}
	db.vendors[normalizeID(vendorID)] = info
}

// AddProduct adds a new product to existing vendor
func (db *BridgeDatabase) AddProduct(vendorID, productID string, info *ProductInfo) {
	if vendor := db.GetVendorInfo(vendorID); vendor != nil {
		vendor.products[normalizeID(productID)] = info
	}
}

// normalizeID accepts "0x2341", "2341" and "2341" in upper case
func normalizeID(id string) string {
	id = strings.ToLower(strings.TrimSpace(id))
	return strings.TrimPrefix(id, "0x")
}

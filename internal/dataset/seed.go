package dataset

// seedRaws is the embedded fallback dataset: seven price records spanning
// metal, e-waste, paper and glass. It keeps the pipeline trainable when the
// backing store is unreachable, at the cost of serving predictions learned
// from toy data.
func seedRaws() []Raw {
	return []Raw{
		{ScrapType: "metal", SubCategory: "Ferrous Metals", SubSubCategory: "Iron", BasePrice: "25.50"},
		{ScrapType: "metal", SubCategory: "Non-Ferrous Metals", SubSubCategory: "Copper", BasePrice: "720.00"},
		{ScrapType: "metal", SubCategory: "Non-Ferrous Metals", SubSubCategory: "Aluminum", BasePrice: "145.00"},
		{ScrapType: "e-waste", SubCategory: "Computing Devices", SubSubCategory: "Laptop - Basic Laptop", BasePrice: "1500.00"},
		{ScrapType: "e-waste", SubCategory: "Mobile Devices", SubSubCategory: "Broken Phones", BasePrice: "500.00"},
		{ScrapType: "paper", SubCategory: "Mixed & Office Paper", SubSubCategory: "Old Newspaper (ONP)", BasePrice: "12.00"},
		{ScrapType: "glass", SubCategory: "Container Glass", SubSubCategory: "Bottles", BasePrice: "8.00"},
	}
}

// SeedRecords returns the cleaned embedded seed dataset.
func SeedRecords() []Record {
	return Clean(seedRaws())
}

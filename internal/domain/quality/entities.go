package quality

import "github.com/qcms/backend/internal/domain/shared"

// Entity names as registered and reported by the API
const (
	EntityDefects      = "defects"
	EntityCheckpoints  = "inspection-checkpoints"
	EntityCheckin      = "inf-checkin"
	EntityLotInputs    = "lot-inputs"
	EntityIqaData      = "iqa-data"
	EntityIqaImages    = "iqa-images"
	EntityCustomers    = "customers"
	EntitySites        = "sites"
	EntityCustomerSite = "customers-site"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

var serialKey = []shared.KeyColumn{{Column: "id", Integer: true}}

// Catalog returns the exposure config of every quality entity, keyed by name
func Catalog() map[string]shared.EntityConfig {
	configs := []shared.EntityConfig{
		{
			Name:             EntityDefects,
			Pattern:          shared.PatternSerialID,
			APIPath:          "/defects",
			Table:            "defects",
			Keys:             serialKey,
			SearchFields:     []string{"defect_code", "defect_name", "description"},
			DateField:        "created_at",
			EqualityFields:   []string{"defect_type", "severity", "is_active"},
			SortFields:       []string{"id", "defect_code", "defect_name", "severity", "created_at", "updated_at"},
			DefaultSort:      "defect_code",
			DefaultSortOrder: "asc",
			DefaultPageSize:  defaultPageSize,
			MaxPageSize:      maxPageSize,
			SoftDeleteColumn: "is_active",
		},
		{
			Name:             EntityCheckpoints,
			Pattern:          shared.PatternVarcharCode,
			APIPath:          "/inspection-checkpoints",
			Table:            "inspection_checkpoints",
			Keys:             []shared.KeyColumn{{Column: "checkpoint_code", Param: "code"}},
			SearchFields:     []string{"checkpoint_code", "checkpoint_name", "station"},
			DateField:        "created_at",
			EqualityFields:   []string{"line_name", "station", "is_active"},
			SortFields:       []string{"checkpoint_code", "checkpoint_name", "line_name", "sequence", "created_at"},
			DefaultSort:      "sequence",
			DefaultSortOrder: "asc",
			DefaultPageSize:  defaultPageSize,
			MaxPageSize:      maxPageSize,
			SoftDeleteColumn: "is_active",
		},
		{
			Name:             EntityCheckin,
			Pattern:          shared.PatternSerialID,
			APIPath:          "/inf-checkin",
			Table:            "inf_checkin",
			Keys:             serialKey,
			SearchFields:     []string{"lot_no", "mo_number", "part_no", "model_name"},
			DateField:        "checkin_date",
			EqualityFields:   []string{"line_name", "station", "part_no"},
			SortFields:       []string{"id", "lot_no", "line_name", "checkin_date", "quantity"},
			DefaultSort:      "checkin_date",
			DefaultSortOrder: "desc",
			DefaultPageSize:  50,
			MaxPageSize:      500,
		},
		{
			Name:             EntityLotInputs,
			Pattern:          shared.PatternSerialID,
			APIPath:          "/lot-inputs",
			Table:            "inf_lotinput",
			Keys:             serialKey,
			SearchFields:     []string{"lot_no", "part_no", "supplier_code"},
			DateField:        "input_date",
			EqualityFields:   []string{"supplier_code", "status"},
			SortFields:       []string{"id", "lot_no", "supplier_code", "input_date", "input_qty"},
			DefaultSort:      "input_date",
			DefaultSortOrder: "desc",
			DefaultPageSize:  defaultPageSize,
			MaxPageSize:      maxPageSize,
		},
		{
			Name:             EntityIqaData,
			Pattern:          shared.PatternSerialID,
			APIPath:          "/iqa-data",
			Table:            "iqadata",
			Keys:             serialKey,
			SearchFields:     []string{"lot_no", "part_no", "supplier_code", "inspector"},
			DateField:        "inspection_date",
			EqualityFields:   []string{"supplier_code", "result", "part_no"},
			SortFields:       []string{"id", "lot_no", "supplier_code", "inspection_date", "result"},
			DefaultSort:      "inspection_date",
			DefaultSortOrder: "desc",
			DefaultPageSize:  defaultPageSize,
			MaxPageSize:      200,
		},
		{
			Name:             EntityIqaImages,
			Pattern:          shared.PatternSerialID,
			APIPath:          "/iqa-images",
			Table:            "iqa_images",
			Keys:             serialKey,
			SearchFields:     []string{"file_name"},
			DateField:        "created_at",
			EqualityFields:   []string{"iqa_id"},
			SortFields:       []string{"id", "iqa_id", "file_name", "created_at"},
			DefaultSort:      "id",
			DefaultSortOrder: "desc",
			DefaultPageSize:  defaultPageSize,
			MaxPageSize:      maxPageSize,
		},
		{
			Name:             EntityCustomers,
			Pattern:          shared.PatternVarcharCode,
			APIPath:          "/customers",
			Table:            "customers",
			Keys:             []shared.KeyColumn{{Column: "customer_code", Param: "code"}},
			SearchFields:     []string{"customer_code", "customer_name", "contact_name"},
			DateField:        "created_at",
			EqualityFields:   []string{"is_active"},
			SortFields:       []string{"customer_code", "customer_name", "created_at"},
			DefaultSort:      "customer_code",
			DefaultSortOrder: "asc",
			DefaultPageSize:  defaultPageSize,
			MaxPageSize:      maxPageSize,
			SoftDeleteColumn: "is_active",
		},
		{
			Name:             EntitySites,
			Pattern:          shared.PatternVarcharCode,
			APIPath:          "/sites",
			Table:            "sites",
			Keys:             []shared.KeyColumn{{Column: "site_code", Param: "code"}},
			SearchFields:     []string{"site_code", "site_name", "location"},
			DateField:        "created_at",
			EqualityFields:   []string{"is_active"},
			SortFields:       []string{"site_code", "site_name", "created_at"},
			DefaultSort:      "site_code",
			DefaultSortOrder: "asc",
			DefaultPageSize:  defaultPageSize,
			MaxPageSize:      maxPageSize,
			SoftDeleteColumn: "is_active",
		},
		{
			Name:    EntityCustomerSite,
			Pattern: shared.PatternSpecial,
			APIPath: "/customers-site",
			Table:   "customers_site",
			Keys: []shared.KeyColumn{
				{Column: "customer_code"},
				{Column: "site_code"},
			},
			SearchFields:     []string{"customer_code", "site_code", "remark"},
			DateField:        "created_at",
			EqualityFields:   []string{"customer_code", "site_code", "is_primary"},
			SortFields:       []string{"customer_code", "site_code", "created_at"},
			DefaultSort:      "customer_code",
			DefaultSortOrder: "asc",
			DefaultPageSize:  defaultPageSize,
			MaxPageSize:      maxPageSize,
		},
	}

	catalog := make(map[string]shared.EntityConfig, len(configs))
	for _, c := range configs {
		catalog[c.Name] = c
	}
	return catalog
}

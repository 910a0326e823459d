package quality

import "time"

// Customer buys inspected product; keyed by its business code
type Customer struct {
	CustomerCode string    `gorm:"column:customer_code;primaryKey;type:varchar(30)" json:"customer_code"`
	CustomerName string    `gorm:"column:customer_name;type:varchar(200);not null" json:"customer_name"`
	ContactName  string    `gorm:"column:contact_name;type:varchar(100)" json:"contact_name"`
	Phone        string    `gorm:"column:phone;type:varchar(50)" json:"phone"`
	Email        string    `gorm:"column:email;type:varchar(200)" json:"email"`
	IsActive     bool      `gorm:"column:is_active;not null" json:"is_active"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName implements gorm's tabler
func (Customer) TableName() string { return "customers" }

// Site is a plant or warehouse location
type Site struct {
	SiteCode  string    `gorm:"column:site_code;primaryKey;type:varchar(30)" json:"site_code"`
	SiteName  string    `gorm:"column:site_name;type:varchar(200);not null" json:"site_name"`
	Location  string    `gorm:"column:location;type:varchar(300)" json:"location"`
	IsActive  bool      `gorm:"column:is_active;not null" json:"is_active"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName implements gorm's tabler
func (Site) TableName() string { return "sites" }

// CustomerSite links a customer to a site it is supplied from
type CustomerSite struct {
	CustomerCode string    `gorm:"column:customer_code;primaryKey;type:varchar(30)" json:"customer_code"`
	SiteCode     string    `gorm:"column:site_code;primaryKey;type:varchar(30)" json:"site_code"`
	IsPrimary    bool      `gorm:"column:is_primary;not null" json:"is_primary"`
	Remark       string    `gorm:"column:remark;type:text" json:"remark"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName implements gorm's tabler
func (CustomerSite) TableName() string { return "customers_site" }

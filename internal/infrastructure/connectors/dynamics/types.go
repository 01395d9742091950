package dynamics

// Web-API-style wire shapes. Dynamics returns result sets under "value" and
// errors as {"error":{"code","message"}}.

type listResponse[T any] struct {
	Value []T `json:"value"`
}

type webAPIError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type dynProduct struct {
	ProductID     string  `json:"productid"`
	ProductNumber string  `json:"productnumber"`
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Price         float64 `json:"price"`
	CurrencyCode  string  `json:"transactioncurrencyid"`
	DefaultUnit   string  `json:"defaultuomid"`
	StateCode     int     `json:"statecode"`
}

type dynSalesOrder struct {
	SalesOrderID    string         `json:"salesorderid"`
	OrderNumber     string         `json:"ordernumber"`
	CustomerID      string         `json:"customerid"`
	CustomerName    string         `json:"customeridname"`
	StateCode       int            `json:"statecode"`
	StatusCode      int            `json:"statuscode"`
	TotalAmount     float64        `json:"totalamount"`
	TotalTax        float64        `json:"totaltax"`
	CurrencyCode    string         `json:"transactioncurrencyid"`
	RequestDelivery string         `json:"requestdeliveryby"`
	CreatedOn       string         `json:"createdon"`
	Details         []dynOrderLine `json:"order_details,omitempty"`
}

type dynOrderLine struct {
	LineItemNumber int     `json:"lineitemnumber"`
	ProductID      string  `json:"productid"`
	ProductName    string  `json:"productidname"`
	Quantity       float64 `json:"quantity"`
	UOM            string  `json:"uomidname"`
	PricePerUnit   float64 `json:"priceperunit"`
	ExtendedAmount float64 `json:"extendedamount"`
}

type dynAccount struct {
	AccountID      string `json:"accountid"`
	Name           string `json:"name"`
	EmailAddress   string `json:"emailaddress1"`
	Telephone      string `json:"telephone1"`
	AddressLine1   string `json:"address1_line1"`
	AddressCity    string `json:"address1_city"`
	AddressState   string `json:"address1_stateorprovince"`
	AddressPostal  string `json:"address1_postalcode"`
	AddressCountry string `json:"address1_country"`
	StateCode      int    `json:"statecode"`
	StatusCode     int    `json:"statuscode"`
}

type dynInvoice struct {
	InvoiceID     string  `json:"invoiceid"`
	InvoiceNumber string  `json:"invoicenumber"`
	CustomerID    string  `json:"customerid"`
	StateCode     int     `json:"statecode"`
	StatusCode    int     `json:"statuscode"`
	TotalAmount   float64 `json:"totalamount"`
	TotalTax      float64 `json:"totaltax"`
	CurrencyCode  string  `json:"transactioncurrencyid"`
	DateDelivered string  `json:"datedelivered"`
	CreatedOn     string  `json:"createdon"`
}

package main

// @title Costing Service API
// @version 1.0
// @description Perpetual inventory costing engine: cost-layer ledger, FIFO and weighted-average consumption, valuation reporting
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url http://github.com/mkravets/erp-costing

// @license.name MIT
// @license.url https://github.com/mkravets/erp-costing/blob/main/LICENSE

// @host localhost:8085
// @BasePath /

// @tag.name Costing
// @tag.description Cost-layer ledger, consumption and valuation endpoints

// @tag.name Health
// @tag.description Health check endpoints

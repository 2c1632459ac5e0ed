package api

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"

	"github.com/shubham-shewale/stock-feed/pkg/models"
)

type graphQLRequest struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

func stockField(t graphql.Output, get func(models.Stock) interface{}) *graphql.Field {
	return &graphql.Field{
		Type: t,
		Resolve: func(p graphql.ResolveParams) (interface{}, error) {
			s, ok := p.Source.(models.Stock)
			if !ok {
				return nil, nil
			}
			return get(s), nil
		},
	}
}

var stockType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Stock",
	Fields: graphql.Fields{
		"name":                stockField(graphql.String, func(s models.Stock) interface{} { return s.Name }),
		"tickerSymbol":        stockField(graphql.String, func(s models.Stock) interface{} { return s.TickerSymbol }),
		"currentPrice":        stockField(graphql.Float, func(s models.Stock) interface{} { return s.CurrentPrice }),
		"historicalPriceData": stockField(graphql.NewList(graphql.Float), func(s models.Stock) interface{} { return s.HistoricalPriceData }),
		"highestPrice":        stockField(graphql.Float, func(s models.Stock) interface{} { return s.HighestPrice }),
		"lowestPrice":         stockField(graphql.Float, func(s models.Stock) interface{} { return s.LowestPrice }),
		// graphql.Int is 32-bit; volumes can exceed it.
		"tradingVolume": stockField(graphql.Float, func(s models.Stock) interface{} { return float64(s.TradingVolume) }),
	},
})

func newSchema(svc StockService) (graphql.Schema, error) {
	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"stocks": &graphql.Field{
				Type: graphql.NewList(stockType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return svc.ListStocks(), nil
				},
			},
			"stock": &graphql.Field{
				Type: stockType,
				Args: graphql.FieldConfigArgument{
					"tickerSymbol": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					ticker, _ := p.Args["tickerSymbol"].(string)
					stock, err := svc.QueryByTicker(ticker)
					if err != nil {
						return nil, nil
					}
					return stock, nil
				},
			},
		},
	})

	mutation := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"createStock": &graphql.Field{
				Type: stockType,
				Args: graphql.FieldConfigArgument{
					"name":         &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"tickerSymbol": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"currentPrice": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					name, _ := p.Args["name"].(string)
					ticker, _ := p.Args["tickerSymbol"].(string)
					price, _ := p.Args["currentPrice"].(float64)
					stock, err := svc.CreateStock(name, ticker, price)
					if err != nil {
						return nil, err
					}
					return stock, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{Query: query, Mutation: mutation})
}

func (s *Server) graphQL(c *gin.Context) {
	var req graphQLRequest
	if c.Request.Method == http.MethodGet {
		req.Query = c.Query("query")
		req.OperationName = c.Query("operationName")
		if vars := c.Query("variables"); vars != "" {
			if err := json.Unmarshal([]byte(vars), &req.Variables); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid variables"})
				return
			}
		}
	} else if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}

	if c.Request.Method == http.MethodGet && isMutation(req.Query, req.OperationName) {
		c.Header("Allow", http.MethodPost)
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "mutations require POST"})
		return
	}

	result := graphql.Do(graphql.Params{
		Schema:         s.schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        c.Request.Context(),
	})
	c.JSON(http.StatusOK, result)
}

// isMutation reports whether the operation that would run is a mutation.
// Unparseable documents are left for graphql.Do to report.
func isMutation(query, operationName string) bool {
	doc, err := parser.Parse(parser.ParseParams{Source: query})
	if err != nil {
		return false
	}
	for _, def := range doc.Definitions {
		op, ok := def.(*ast.OperationDefinition)
		if !ok {
			continue
		}
		if operationName != "" && (op.Name == nil || op.Name.Value != operationName) {
			continue
		}
		if op.Operation == ast.OperationTypeMutation {
			return true
		}
	}
	return false
}

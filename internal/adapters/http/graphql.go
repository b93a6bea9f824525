package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/adityarao/campus-transit/internal/core/domain"
)

// buildSchema creates the read-only GraphQL schema wired to the store.
// Mutations go through the REST endpoints where the optimistic-write
// semantics live.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	stopType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Stop",
		Fields: graphql.Fields{
			"name":        &graphql.Field{Type: graphql.String},
			"pickup_time": &graphql.Field{Type: graphql.String},
			"order":       &graphql.Field{Type: graphql.Int},
			"lat":         &graphql.Field{Type: graphql.Float},
			"lon":         &graphql.Field{Type: graphql.Float},
		},
	})

	routeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Route",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.String},
			"name":        &graphql.Field{Type: graphql.String},
			"start_point": &graphql.Field{Type: graphql.String},
			"city":        &graphql.Field{Type: graphql.String},
			"color":       &graphql.Field{Type: graphql.String},
			"stops":       &graphql.Field{Type: graphql.NewList(stopType)},
		},
	})

	busType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Bus",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.String},
			"number":      &graphql.Field{Type: graphql.String},
			"name":        &graphql.Field{Type: graphql.String},
			"capacity":    &graphql.Field{Type: graphql.Int},
			"total_seats": &graphql.Field{Type: graphql.Int},
			"route_id":    &graphql.Field{Type: graphql.String},
			"driver_id":   &graphql.Field{Type: graphql.String},
			"status":      &graphql.Field{Type: graphql.String},
		},
	})

	driverType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Driver",
		Fields: graphql.Fields{
			"id":              &graphql.Field{Type: graphql.String},
			"name":            &graphql.Field{Type: graphql.String},
			"phone":           &graphql.Field{Type: graphql.String},
			"license":         &graphql.Field{Type: graphql.String},
			"status":          &graphql.Field{Type: graphql.String},
			"rating":          &graphql.Field{Type: graphql.Float},
			"conductor_name":  &graphql.Field{Type: graphql.String},
			"conductor_phone": &graphql.Field{Type: graphql.String},
			"experience":      &graphql.Field{Type: graphql.String},
			"bus_id":          &graphql.Field{Type: graphql.String},
		},
	})

	seatType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Seat",
		Fields: graphql.Fields{
			"id":           &graphql.Field{Type: graphql.String},
			"seat_number":  &graphql.Field{Type: graphql.String},
			"row":          &graphql.Field{Type: graphql.Int},
			"col":          &graphql.Field{Type: graphql.Int},
			"booked":       &graphql.Field{Type: graphql.Boolean},
			"student_name": &graphql.Field{Type: graphql.String},
			"student_id":   &graphql.Field{Type: graphql.String},
		},
	})

	positionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Position",
		Fields: graphql.Fields{
			"bus_id":  &graphql.Field{Type: graphql.String},
			"lat":     &graphql.Field{Type: graphql.Float},
			"lon":     &graphql.Field{Type: graphql.Float},
			"heading": &graphql.Field{Type: graphql.Int},
			"speed":   &graphql.Field{Type: graphql.Int},
		},
	})

	complaintType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Complaint",
		Fields: graphql.Fields{
			"id":           &graphql.Field{Type: graphql.String},
			"student_id":   &graphql.Field{Type: graphql.String},
			"student_name": &graphql.Field{Type: graphql.String},
			"bus_id":       &graphql.Field{Type: graphql.String},
			"category":     &graphql.Field{Type: graphql.String},
			"subject":      &graphql.Field{Type: graphql.String},
			"description":  &graphql.Field{Type: graphql.String},
			"status":       &graphql.Field{Type: graphql.String},
			"response":     &graphql.Field{Type: graphql.String},
			"date":         &graphql.Field{Type: graphql.String},
			"sync_state":   &graphql.Field{Type: graphql.String},
		},
	})

	busChangeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "BusChangeRequest",
		Fields: graphql.Fields{
			"id":               &graphql.Field{Type: graphql.String},
			"student_id":       &graphql.Field{Type: graphql.String},
			"student_name":     &graphql.Field{Type: graphql.String},
			"current_bus_id":   &graphql.Field{Type: graphql.String},
			"requested_bus_id": &graphql.Field{Type: graphql.String},
			"reason":           &graphql.Field{Type: graphql.String},
			"status":           &graphql.Field{Type: graphql.String},
			"admin_note":       &graphql.Field{Type: graphql.String},
			"sync_state":       &graphql.Field{Type: graphql.String},
		},
	})

	visitType := graphql.NewObject(graphql.ObjectConfig{
		Name: "IndustrialVisit",
		Fields: graphql.Fields{
			"id":           &graphql.Field{Type: graphql.String},
			"faculty_id":   &graphql.Field{Type: graphql.String},
			"faculty_name": &graphql.Field{Type: graphql.String},
			"destination":  &graphql.Field{Type: graphql.String},
			"visit_date":   &graphql.Field{Type: graphql.String},
			"students":     &graphql.Field{Type: graphql.Int},
			"purpose":      &graphql.Field{Type: graphql.String},
			"stops":        &graphql.Field{Type: graphql.NewList(graphql.String)},
			"status":       &graphql.Field{Type: graphql.String},
			"bus_assigned": &graphql.Field{Type: graphql.String},
			"sync_state":   &graphql.Field{Type: graphql.String},
		},
	})

	statsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Stats",
		Fields: graphql.Fields{
			"routes":      &graphql.Field{Type: graphql.Int},
			"buses":       &graphql.Field{Type: graphql.Int},
			"drivers":     &graphql.Field{Type: graphql.Int},
			"students":    &graphql.Field{Type: graphql.Int},
			"complaints":  &graphql.Field{Type: graphql.Int},
			"data_source": &graphql.Field{Type: graphql.String},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"routes": &graphql.Field{
				Type:        graphql.NewList(routeType),
				Description: "List all campus routes",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Store.Routes(), nil
				},
			},
			"route": &graphql.Field{
				Type:        routeType,
				Description: "Get a route by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					route, ok := deps.Store.RouteByID(p.Args["id"].(string))
					if !ok {
						return nil, nil
					}
					return route, nil
				},
			},
			"buses": &graphql.Field{
				Type:        graphql.NewList(busType),
				Description: "List the fleet",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Store.Buses(), nil
				},
			},
			"bus": &graphql.Field{
				Type:        busType,
				Description: "Get a bus by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					bus, ok := deps.Store.BusByID(p.Args["id"].(string))
					if !ok {
						return nil, nil
					}
					return bus, nil
				},
			},
			"seatLayout": &graphql.Field{
				Type:        graphql.NewList(graphql.NewList(seatType)),
				Description: "Seat grid for a bus with current occupancy",
				Args: graphql.FieldConfigArgument{
					"bus_id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Store.SeatLayout(p.Args["bus_id"].(string))
				},
			},
			"drivers": &graphql.Field{
				Type:        graphql.NewList(driverType),
				Description: "List all drivers",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Store.Drivers(), nil
				},
			},
			"positions": &graphql.Field{
				Type:        graphql.NewList(positionType),
				Description: "Latest simulated bus positions",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					positions := deps.Store.Positions()
					out := make([]map[string]interface{}, 0, len(positions))
					for busID, pos := range positions {
						out = append(out, map[string]interface{}{
							"bus_id":  busID,
							"lat":     pos.Lat,
							"lon":     pos.Lon,
							"heading": pos.Heading,
							"speed":   pos.Speed,
						})
					}
					return out, nil
				},
			},
			"complaints": &graphql.Field{
				Type:        graphql.NewList(complaintType),
				Description: "List complaints",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Store.Complaints(), nil
				},
			},
			"busChanges": &graphql.Field{
				Type:        graphql.NewList(busChangeType),
				Description: "List bus-change requests",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Store.BusChanges(), nil
				},
			},
			"visits": &graphql.Field{
				Type:        graphql.NewList(visitType),
				Description: "List industrial-visit requests",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Store.Visits(), nil
				},
			},
			"stats": &graphql.Field{
				Type:        statsType,
				Description: "Portal dataset counters",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return map[string]interface{}{
						"routes":      len(deps.Store.Routes()),
						"buses":       len(deps.Store.Buses()),
						"drivers":     len(deps.Store.Drivers()),
						"students":    len(deps.Store.Students()),
						"complaints":  len(deps.Store.Complaints()),
						"data_source": deps.Store.DataSource(),
					}, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.Context(),
		})

		return c.JSON(result)
	}
}

// Ensure domain types implement field resolvers for graphql-go via struct tags
var _ = domain.Route{}
var _ = domain.Bus{}
var _ = domain.Seat{}

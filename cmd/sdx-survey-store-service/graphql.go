package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/handler"

	"github.com/ONSdigital/sdx-survey-sync/internal/store"
)

type surveyNode struct {
	id string
}

type answerNode struct {
	survey string
	id     string
}

var errSurveyNotFound = errors.New("survey not found")

// newSchema builds the read-only query API over repo:
//
//	surveys(uid: String): [Survey!]!
//	Survey { uid, data, answers: [Answer!]! }
//	Answer { uid, data, survey: Survey! }
//
// data fields hold the stored JSON document as a string.
func newSchema(repo store.Repository) (graphql.Schema, error) {
	var surveyType, answerType *graphql.Object

	surveyType = graphql.NewObject(graphql.ObjectConfig{
		Name: "Survey",
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return graphql.Fields{
				"uid": &graphql.Field{
					Type: graphql.NewNonNull(graphql.String),
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						return p.Source.(surveyNode).id, nil
					},
				},
				"data": &graphql.Field{
					Type: graphql.String,
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						data, err := repo.GetSurvey(p.Context, p.Source.(surveyNode).id)
						if errors.Is(err, store.ErrNotFound) {
							return nil, nil
						}
						if err != nil {
							return nil, err
						}
						return string(data), nil
					},
				},
				"answers": &graphql.Field{
					Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(answerType))),
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						surveyID := p.Source.(surveyNode).id
						ids, err := repo.ListAnswers(p.Context, surveyID)
						if err != nil {
							return nil, err
						}
						nodes := make([]answerNode, len(ids))
						for i, id := range ids {
							nodes[i] = answerNode{survey: surveyID, id: id}
						}
						return nodes, nil
					},
				},
			}
		}),
	})

	answerType = graphql.NewObject(graphql.ObjectConfig{
		Name: "Answer",
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return graphql.Fields{
				"uid": &graphql.Field{
					Type: graphql.NewNonNull(graphql.String),
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						return p.Source.(answerNode).id, nil
					},
				},
				"data": &graphql.Field{
					Type: graphql.String,
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						a := p.Source.(answerNode)
						data, err := repo.GetAnswers(p.Context, a.survey, a.id)
						if errors.Is(err, store.ErrNotFound) {
							return nil, nil
						}
						if err != nil {
							return nil, err
						}
						return string(data), nil
					},
				},
				"survey": &graphql.Field{
					Type: graphql.NewNonNull(surveyType),
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						return surveyNode{id: p.Source.(answerNode).survey}, nil
					},
				},
			}
		}),
	})

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"surveys": &graphql.Field{
				Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(surveyType))),
				Args: graphql.FieldConfigArgument{
					"uid": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if uid, ok := p.Args["uid"].(string); ok {
						exists, err := repo.SurveyExists(p.Context, uid)
						if err != nil {
							return nil, err
						}
						if !exists {
							return nil, fmt.Errorf("%w: %s", errSurveyNotFound, uid)
						}
						return []surveyNode{{id: uid}}, nil
					}
					ids, err := repo.ListSurveys(p.Context)
					if err != nil {
						return nil, err
					}
					nodes := make([]surveyNode, len(ids))
					for i, id := range ids {
						nodes[i] = surveyNode{id: id}
					}
					return nodes, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{Query: query})
}

// graphqlHandler serves the schema over GET and POST, with GraphiQL for
// browsers.
func graphqlHandler(repo store.Repository) (http.Handler, error) {
	schema, err := newSchema(repo)
	if err != nil {
		return nil, err
	}
	return handler.New(&handler.Config{
		Schema:   &schema,
		Pretty:   true,
		GraphiQL: true,
	}), nil
}

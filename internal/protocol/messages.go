// Package protocol defines the inter-server and client-server wire
// protocol: newline-delimited JSON messages tagged by a "type" field.
//
// Message is a tagged sum of concrete structs rather than a dynamic dict:
// Decode sniffs the envelope's Type and unmarshals into the matching
// concrete struct, returning an error for any type it does not recognize.
// Callers then type-switch on the result.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/khitir/bulletin-board/internal/article"
)

// MsgType identifies the shape of a message's remaining fields.
type MsgType string

const (
	TypeClientConnect          MsgType = "client_connect"
	TypePostArticle            MsgType = "post_article"
	TypeReplyArticle           MsgType = "reply_article"
	TypeReadArticles           MsgType = "read_articles"
	TypeReadArticleContent     MsgType = "read_article_content"
	TypeNewArticle             MsgType = "new_article"
	TypeNewArticles            MsgType = "new_articles"
	TypeWriteArticle           MsgType = "write_article"
	TypeGetArticles            MsgType = "get_articles"
	TypeGetArticleContent      MsgType = "get_article_content"
	TypeRequestMissingArticles MsgType = "request_missing_articles"
	TypeGetNextArticleID       MsgType = "get_next_article_id"

	TypePostSuccess         MsgType = "post_success"
	TypeArticlesList        MsgType = "articles_list"
	TypeArticleContent      MsgType = "article_content"
	TypeArticleAck          MsgType = "article_ack"
	TypeWriteAck            MsgType = "write_ack"
	TypeConnectAck          MsgType = "connect_ack"
	TypeSendMissingArticles MsgType = "send_missing_articles"
	TypeNextArticleID       MsgType = "next_article_id"
	TypeAck                 MsgType = "ack"
	TypeError               MsgType = "error"
)

// Message is implemented by every concrete message struct.
type Message interface {
	MsgType() MsgType
}

type envelope struct {
	Type MsgType `json:"type"`
}

// --- client -> server ---

type ClientConnect struct {
	Type         MsgType `json:"type"`
	ClientID     string  `json:"client_id"`
	WriteCounter int64   `json:"write_counter"`
}

func (ClientConnect) MsgType() MsgType { return TypeClientConnect }

type PostArticle struct {
	Type         MsgType `json:"type"`
	Title        string  `json:"title"`
	Content      string  `json:"content"`
	ClientID     string  `json:"client_id,omitempty"`
	WriteCounter int64   `json:"write_counter,omitempty"`
}

func (PostArticle) MsgType() MsgType { return TypePostArticle }

type ReplyArticle struct {
	Type         MsgType `json:"type"`
	ParentID     int64   `json:"parent_id"`
	Title        string  `json:"title"`
	Content      string  `json:"content"`
	ClientID     string  `json:"client_id,omitempty"`
	WriteCounter int64   `json:"write_counter,omitempty"`
}

func (ReplyArticle) MsgType() MsgType { return TypeReplyArticle }

type ReadArticles struct {
	Type MsgType `json:"type"`
}

func (ReadArticles) MsgType() MsgType { return TypeReadArticles }

type ReadArticleContent struct {
	Type      MsgType `json:"type"`
	ArticleID int64   `json:"article_id"`
}

func (ReadArticleContent) MsgType() MsgType { return TypeReadArticleContent }

// --- peer <-> peer / peer -> coordinator ---

type NewArticle struct {
	Type    MsgType         `json:"type"`
	Article article.Article `json:"article"`
}

func (NewArticle) MsgType() MsgType { return TypeNewArticle }

type NewArticles struct {
	Type     MsgType           `json:"type"`
	Articles []article.Article `json:"articles"`
}

func (NewArticles) MsgType() MsgType { return TypeNewArticles }

type WriteArticle struct {
	Type    MsgType         `json:"type"`
	Article article.Article `json:"article"`
}

func (WriteArticle) MsgType() MsgType { return TypeWriteArticle }

type GetArticles struct {
	Type MsgType `json:"type"`
}

func (GetArticles) MsgType() MsgType { return TypeGetArticles }

type GetArticleContent struct {
	Type      MsgType `json:"type"`
	ArticleID int64   `json:"article_id"`
}

func (GetArticleContent) MsgType() MsgType { return TypeGetArticleContent }

type RequestMissingArticles struct {
	Type     MsgType `json:"type"`
	ClientID string  `json:"client_id"`
	Counters []int64 `json:"counters"`
}

func (RequestMissingArticles) MsgType() MsgType { return TypeRequestMissingArticles }

type GetNextArticleID struct {
	Type MsgType `json:"type"`
}

func (GetNextArticleID) MsgType() MsgType { return TypeGetNextArticleID }

// --- responses ---

type PostSuccess struct {
	Type      MsgType `json:"type"`
	ArticleID int64   `json:"article_id"`
}

func (PostSuccess) MsgType() MsgType { return TypePostSuccess }

type ArticlesList struct {
	Type     MsgType           `json:"type"`
	Articles []article.Summary `json:"articles"`
}

func (ArticlesList) MsgType() MsgType { return TypeArticlesList }

type ArticleContent struct {
	Type    MsgType         `json:"type"`
	Article article.Article `json:"article"`
}

func (ArticleContent) MsgType() MsgType { return TypeArticleContent }

type ArticleAck struct {
	Type      MsgType `json:"type"`
	ArticleID int64   `json:"article_id"`
}

func (ArticleAck) MsgType() MsgType { return TypeArticleAck }

type WriteAck struct {
	Type MsgType `json:"type"`
}

func (WriteAck) MsgType() MsgType { return TypeWriteAck }

type ConnectAck struct {
	Type MsgType `json:"type"`
}

func (ConnectAck) MsgType() MsgType { return TypeConnectAck }

type SendMissingArticles struct {
	Type     MsgType           `json:"type"`
	Articles []article.Article `json:"articles"`
}

func (SendMissingArticles) MsgType() MsgType { return TypeSendMissingArticles }

type NextArticleID struct {
	Type      MsgType `json:"type"`
	ArticleID int64   `json:"article_id"`
}

func (NextArticleID) MsgType() MsgType { return TypeNextArticleID }

type Ack struct {
	Type MsgType `json:"type"`
}

func (Ack) MsgType() MsgType { return TypeAck }

type Error struct {
	Type    MsgType `json:"type"`
	Message string  `json:"message"`
}

func (Error) MsgType() MsgType { return TypeError }

// NewError builds an Error response with msg as its message.
func NewError(msg string) Error {
	return Error{Type: TypeError, Message: msg}
}

// Decode sniffs data's "type" field and unmarshals it into the matching
// concrete Message. An unrecognized type yields ErrUnknownType rather than
// a partially populated struct.
func Decode(data []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("protocol: decode envelope: %w", err)
	}

	var msg Message
	switch env.Type {
	case TypeClientConnect:
		msg = &ClientConnect{}
	case TypePostArticle:
		msg = &PostArticle{}
	case TypeReplyArticle:
		msg = &ReplyArticle{}
	case TypeReadArticles:
		msg = &ReadArticles{}
	case TypeReadArticleContent:
		msg = &ReadArticleContent{}
	case TypeNewArticle:
		msg = &NewArticle{}
	case TypeNewArticles:
		msg = &NewArticles{}
	case TypeWriteArticle:
		msg = &WriteArticle{}
	case TypeGetArticles:
		msg = &GetArticles{}
	case TypeGetArticleContent:
		msg = &GetArticleContent{}
	case TypeRequestMissingArticles:
		msg = &RequestMissingArticles{}
	case TypeGetNextArticleID:
		msg = &GetNextArticleID{}
	case TypePostSuccess:
		msg = &PostSuccess{}
	case TypeArticlesList:
		msg = &ArticlesList{}
	case TypeArticleContent:
		msg = &ArticleContent{}
	case TypeArticleAck:
		msg = &ArticleAck{}
	case TypeWriteAck:
		msg = &WriteAck{}
	case TypeConnectAck:
		msg = &ConnectAck{}
	case TypeSendMissingArticles:
		msg = &SendMissingArticles{}
	case TypeNextArticleID:
		msg = &NextArticleID{}
	case TypeAck:
		msg = &Ack{}
	case TypeError:
		msg = &Error{}
	default:
		return nil, ErrUnknownType
	}

	if err := json.Unmarshal(data, msg); err != nil {
		return nil, fmt.Errorf("protocol: decode %s: %w", env.Type, err)
	}
	return msg, nil
}

// Encode appends a trailing newline, as required by the line-framed wire
// format: every response is one JSON object followed by '\n'.
func Encode(msg Message) ([]byte, error) {
	b, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("protocol: encode %s: %w", msg.MsgType(), err)
	}
	return append(b, '\n'), nil
}

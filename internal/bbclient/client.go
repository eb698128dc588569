// Package bbclient is a non-interactive programmatic client for the
// bulletin-board wire protocol. There is no menu or server-picker loop
// here; callers (cmd/client, tests) choose a server and drive operations
// directly.
package bbclient

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/khitir/bulletin-board/internal/article"
	"github.com/khitir/bulletin-board/internal/config"
	"github.com/khitir/bulletin-board/internal/protocol"
	"github.com/khitir/bulletin-board/internal/rpcclient"
)

// Client talks to one chosen server over the bulletin-board protocol on
// behalf of one logical end user.
type Client struct {
	ServerAddr  string
	Consistency config.Model
	ClientID    string

	rpc          *rpcclient.Client
	writeCounter int64
	connected    bool
}

// New returns a Client identified by a freshly generated UUID, used as the
// client_id RYW servers track write counters against.
func New(serverAddr string, mode config.Model) *Client {
	return &Client{
		ServerAddr:  serverAddr,
		Consistency: mode,
		ClientID:    uuid.NewString(),
		rpc:         rpcclient.New(),
	}
}

// Connect performs the RYW client_connect handshake declaring this
// client's current write_counter, so the server can fetch any of its
// writes it is missing. It is a no-op outside RYW mode.
func (c *Client) Connect() error {
	if c.Consistency != config.ReadYourWrites {
		c.connected = true
		return nil
	}
	resp, err := c.rpc.Call(c.ServerAddr, &protocol.ClientConnect{
		Type:         protocol.TypeClientConnect,
		ClientID:     c.ClientID,
		WriteCounter: c.writeCounter,
	})
	if err != nil {
		return fmt.Errorf("bbclient: connect: %w", err)
	}
	if resp.MsgType() != protocol.TypeConnectAck {
		return fmt.Errorf("bbclient: connect: unexpected response %s", resp.MsgType())
	}
	c.connected = true
	return nil
}

// SwitchServer points the client at a different server. The caller is
// responsible for calling Connect again afterward to replay the RYW
// handshake.
func (c *Client) SwitchServer(addr string) {
	c.ServerAddr = addr
	c.connected = false
}

// PostArticle creates a root article. Under RYW it bumps the client's
// write_counter before sending.
func (c *Client) PostArticle(title, content string) (int64, error) {
	msg := &protocol.PostArticle{Type: protocol.TypePostArticle, Title: title, Content: content}
	if c.Consistency == config.ReadYourWrites {
		c.writeCounter++
		msg.ClientID = c.ClientID
		msg.WriteCounter = c.writeCounter
	}
	return c.sendWrite(msg)
}

// ReplyArticle creates an article referencing parentID as its parent. The
// system does not validate that parentID exists.
func (c *Client) ReplyArticle(parentID int64, title, content string) (int64, error) {
	msg := &protocol.ReplyArticle{Type: protocol.TypeReplyArticle, ParentID: parentID, Title: title, Content: content}
	if c.Consistency == config.ReadYourWrites {
		c.writeCounter++
		msg.ClientID = c.ClientID
		msg.WriteCounter = c.writeCounter
	}
	return c.sendWrite(msg)
}

func (c *Client) sendWrite(msg protocol.Message) (int64, error) {
	resp, err := c.rpc.Call(c.ServerAddr, msg)
	if err != nil {
		return 0, fmt.Errorf("bbclient: %s: %w", protocol.MsgCommunicationError, err)
	}
	switch r := resp.(type) {
	case *protocol.PostSuccess:
		return r.ArticleID, nil
	case *protocol.Error:
		return 0, fmt.Errorf("bbclient: %s", r.Message)
	default:
		return 0, fmt.Errorf("bbclient: unexpected response %s", resp.MsgType())
	}
}

// ReadArticles returns the (id, parent_id, title) listing this server
// currently serves.
func (c *Client) ReadArticles() ([]article.Summary, error) {
	resp, err := c.rpc.Call(c.ServerAddr, &protocol.ReadArticles{Type: protocol.TypeReadArticles})
	if err != nil {
		return nil, fmt.Errorf("bbclient: %s: %w", protocol.MsgCommunicationError, err)
	}
	list, ok := resp.(*protocol.ArticlesList)
	if !ok {
		if e, ok := resp.(*protocol.Error); ok {
			return nil, fmt.Errorf("bbclient: %s", e.Message)
		}
		return nil, fmt.Errorf("bbclient: unexpected response %s", resp.MsgType())
	}
	return list.Articles, nil
}

// ReadArticleContent fetches the full title/content of one article.
func (c *Client) ReadArticleContent(articleID int64) (*protocol.ArticleContent, error) {
	resp, err := c.rpc.Call(c.ServerAddr, &protocol.ReadArticleContent{Type: protocol.TypeReadArticleContent, ArticleID: articleID})
	if err != nil {
		return nil, fmt.Errorf("bbclient: %s: %w", protocol.MsgCommunicationError, err)
	}
	content, ok := resp.(*protocol.ArticleContent)
	if !ok {
		if e, ok := resp.(*protocol.Error); ok {
			return nil, fmt.Errorf("bbclient: %s", e.Message)
		}
		return nil, fmt.Errorf("bbclient: unexpected response %s", resp.MsgType())
	}
	return content, nil
}
